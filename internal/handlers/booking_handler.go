package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/httpresp"
	"github.com/BruksfildServices01/barber-dashboard/internal/workflow"
)

// ======================================================
// HANDLER
// ======================================================

// BookingHandler exposes the booking form as a server-side wizard. Every
// step answers with the form's current view.
type BookingHandler struct {
	deps     workflow.BookingDeps
	registry *workflow.Registry[*workflow.Booking]
}

func NewBookingHandler(deps workflow.BookingDeps, registry *workflow.Registry[*workflow.Booking]) *BookingHandler {
	return &BookingHandler{deps: deps, registry: registry}
}

// ======================================================
// REQUESTS
// ======================================================

type BookingDateRequest struct {
	Date string `json:"date" binding:"required"`
}

type BookingTimeRequest struct {
	Time string `json:"time" binding:"required"`
}

type BookingContactRequest struct {
	Name      string `json:"name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	ServiceID uint   `json:"service_id" binding:"required"`
}

// ======================================================
// HELPERS
// ======================================================

func (h *BookingHandler) form(c *gin.Context) (*workflow.Booking, bool) {
	wf, err := h.registry.Get(sessionOf(c), c.Param("id"))
	if err != nil {
		httperr.From(c, err)
		return nil, false
	}
	return wf, true
}

func (h *BookingHandler) view(c *gin.Context, wf *workflow.Booking, err error) {
	if err != nil {
		httperr.From(c, err)
		return
	}
	httpresp.OK(c, wf.View())
}

// formError answers a failed submit with the form as it stands afterwards.
func formError(c *gin.Context, err error, form any, ui *dialog.Recorder) {
	kind := httperr.KindOf(err)
	c.AbortWithStatusJSON(httperr.StatusOf(kind), gin.H{
		"error_kind": kind,
		"error_code": httperr.CodeOf(err),
		"message":    httperr.MessageOf(err),
		"form":       form,
		"notices":    ui.Notices(),
	})
}

// ======================================================
// ROUTES
// ======================================================

func (h *BookingHandler) Open(c *gin.Context) {
	wf := workflow.NewBooking(h.deps, actorOf(c))
	id := h.registry.Put(sessionOf(c), wf)

	httpresp.Created(c, gin.H{
		"id":   id,
		"form": wf.View(),
	})
}

func (h *BookingHandler) Get(c *gin.Context) {
	if wf, ok := h.form(c); ok {
		httpresp.OK(c, wf.View())
	}
}

func (h *BookingHandler) Calendar(c *gin.Context) {
	wf, ok := h.form(c)
	if !ok {
		return
	}
	year, month, err := yearMonthQuery(c, h.deps.Clock)
	if err != nil {
		httperr.From(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"year":  year,
		"month": month,
		"weeks": wf.Calendar(year, month),
	})
}

func (h *BookingHandler) SelectDate(c *gin.Context) {
	wf, ok := h.form(c)
	if !ok {
		return
	}
	var req BookingDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Seleccione una fecha.")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httperr.From(c, err)
		return
	}

	h.view(c, wf, wf.SelectDate(c.Request.Context(), date))
}

func (h *BookingHandler) SelectTime(c *gin.Context) {
	wf, ok := h.form(c)
	if !ok {
		return
	}
	var req BookingTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Seleccione un horario.")
		return
	}
	t, err := parseTime(req.Time)
	if err != nil {
		httperr.From(c, err)
		return
	}

	h.view(c, wf, wf.SelectTime(t))
}

func (h *BookingHandler) SetContact(c *gin.Context) {
	wf, ok := h.form(c)
	if !ok {
		return
	}
	var req BookingContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "contact_required", "Complete nombre, apellido, teléfono y servicio.")
		return
	}

	h.view(c, wf, wf.SetContact(workflow.Contact{
		Name:      req.Name,
		LastName:  req.LastName,
		Phone:     req.Phone,
		ServiceID: req.ServiceID,
	}))
}

func (h *BookingHandler) Next(c *gin.Context) {
	if wf, ok := h.form(c); ok {
		h.view(c, wf, wf.Next())
	}
}

func (h *BookingHandler) Back(c *gin.Context) {
	if wf, ok := h.form(c); ok {
		h.view(c, wf, wf.Back())
	}
}

func (h *BookingHandler) Submit(c *gin.Context) {
	wf, ok := h.form(c)
	if !ok {
		return
	}

	ui := dialog.NewRecorder(true)
	created, affected, err := wf.Submit(c.Request.Context(), ui)
	if err != nil {
		formError(c, err, wf.View(), ui)
		return
	}

	h.registry.Remove(sessionOf(c), c.Param("id"))
	httpresp.Mutation(c, http.StatusCreated, created, affected, ui)
}

func (h *BookingHandler) Close(c *gin.Context) {
	h.registry.Remove(sessionOf(c), c.Param("id"))
	c.Status(http.StatusNoContent)
}

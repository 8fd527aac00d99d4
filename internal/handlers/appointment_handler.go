package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/httpresp"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	clock timezone.Clock

	listByDate   *agenda.ListAppointmentsByDate
	listByMonth  *agenda.ListAppointmentsByMonth
	availability *agenda.GetAvailability
	cancel       *agenda.CancelAppointment
	restore      *agenda.RestoreAppointment
	complete     *agenda.CompleteAppointment
	start        *agenda.StartAppointment
}

func NewAppointmentHandler(d agenda.Deps) *AppointmentHandler {
	return &AppointmentHandler{
		clock:        d.Clock,
		listByDate:   agenda.NewListAppointmentsByDate(d),
		listByMonth:  agenda.NewListAppointmentsByMonth(d),
		availability: agenda.NewGetAvailability(d),
		cancel:       agenda.NewCancelAppointment(d),
		restore:      agenda.NewRestoreAppointment(d),
		complete:     agenda.NewCompleteAppointment(d),
		start:        agenda.NewStartAppointment(d),
	}
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	date, err := dateQuery(c, "date", h.clock)
	if err != nil {
		httperr.From(c, err)
		return
	}

	rows, err := h.listByDate.Execute(c.Request.Context(), date)
	if err != nil {
		httperr.From(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         date,
		"appointments": rows,
	})
}

// ======================================================
// LIST BY MONTH
// ======================================================

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	year, month, err := yearMonthQuery(c, h.clock)
	if err != nil {
		httperr.From(c, err)
		return
	}

	view, err := h.listByMonth.Execute(c.Request.Context(), year, month)
	if err != nil {
		httperr.From(c, err)
		return
	}

	httpresp.OK(c, view)
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *AppointmentHandler) Availability(c *gin.Context) {
	date, err := dateQuery(c, "date", h.clock)
	if err != nil {
		httperr.From(c, err)
		return
	}

	minutes := 0
	if raw := c.Query("duration"); raw != "" {
		minutes, err = strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			httperr.BadRequest(c, "invalid_duration", "Duración inválida.")
			return
		}
	}

	av, err := h.availability.ExecuteFor(c.Request.Context(), date, minutes)
	if err != nil {
		httperr.From(c, err)
		return
	}

	httpresp.OK(c, av)
}

// ======================================================
// STATUS CHANGES
// ======================================================

type statusChange func(ctx context.Context, actor agenda.Actor, ref agenda.AppointmentRef, ui dialog.UI) (models.DateRange, error)

// change runs one status transition for /appointments/:id/<action>?date=.
func (h *AppointmentHandler) change(c *gin.Context, run statusChange) {
	id, err := idParam(c, "id")
	if err != nil {
		httperr.From(c, err)
		return
	}
	date, err := parseDate(c.Query("date"))
	if err != nil {
		httperr.From(c, err)
		return
	}

	ui := dialog.NewRecorder(confirmed(c))
	affected, err := run(c.Request.Context(), actorOf(c), agenda.AppointmentRef{Date: date, ID: id}, ui)
	if err != nil {
		if errors.Is(err, agenda.ErrNotConfirmed) {
			c.AbortWithStatusJSON(http.StatusPreconditionRequired, gin.H{
				"error_code": "confirmation_required",
				"prompts":    ui.Asked(),
			})
			return
		}
		httperr.From(c, err)
		return
	}

	httpresp.Mutation(c, http.StatusOK, nil, affected, ui)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.change(c, h.cancel.Execute)
}

func (h *AppointmentHandler) Restore(c *gin.Context) {
	h.change(c, h.restore.Execute)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.change(c, h.complete.Execute)
}

func (h *AppointmentHandler) Start(c *gin.Context) {
	h.change(c, h.start.Execute)
}

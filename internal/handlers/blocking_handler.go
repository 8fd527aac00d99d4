package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/httpresp"
	"github.com/BruksfildServices01/barber-dashboard/internal/workflow"
)

type BlockingHandler struct {
	deps     workflow.BlockingDeps
	registry *workflow.Registry[*workflow.Blocking]
}

func NewBlockingHandler(deps workflow.BlockingDeps, registry *workflow.Registry[*workflow.Blocking]) *BlockingHandler {
	return &BlockingHandler{deps: deps, registry: registry}
}

// BlockingDraftRequest carries the fields to change; absent ones are kept.
type BlockingDraftRequest struct {
	Date      *string `json:"date"`
	FullDay   *bool   `json:"full_day"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Reason    *string `json:"reason"`
}

func (h *BlockingHandler) form(c *gin.Context) (*workflow.Blocking, bool) {
	wf, err := h.registry.Get(sessionOf(c), c.Param("id"))
	if err != nil {
		httperr.From(c, err)
		return nil, false
	}
	return wf, true
}

// Open starts a form on today and loads what is already blocked.
func (h *BlockingHandler) Open(c *gin.Context) {
	wf := workflow.NewBlocking(h.deps, actorOf(c))
	id := h.registry.Put(sessionOf(c), wf)

	if err := wf.Refresh(c.Request.Context()); err != nil {
		h.registry.Remove(sessionOf(c), id)
		httperr.From(c, err)
		return
	}

	httpresp.Created(c, gin.H{
		"id":   id,
		"form": wf.View(),
	})
}

func (h *BlockingHandler) Get(c *gin.Context) {
	if wf, ok := h.form(c); ok {
		httpresp.OK(c, wf.View())
	}
}

// Update parses the whole request before touching the draft; the form applies
// it all or nothing.
func (h *BlockingHandler) Update(c *gin.Context) {
	wf, ok := h.form(c)
	if !ok {
		return
	}
	var req BlockingDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Datos inválidos.")
		return
	}

	patch, err := req.patch()
	if err != nil {
		httperr.From(c, err)
		return
	}
	if err := wf.Update(c.Request.Context(), patch); err != nil {
		httperr.From(c, err)
		return
	}
	httpresp.OK(c, wf.View())
}

func (req BlockingDraftRequest) patch() (workflow.DraftPatch, error) {
	p := workflow.DraftPatch{FullDay: req.FullDay, Reason: req.Reason}

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return workflow.DraftPatch{}, err
		}
		p.Date = &date
	}
	if req.StartTime != nil || req.EndTime != nil {
		if req.StartTime == nil || req.EndTime == nil {
			return workflow.DraftPatch{}, httperr.ErrValidation("invalid_range", "Indique hora de inicio y fin.")
		}
		span, err := parseSpan(*req.StartTime, *req.EndTime)
		if err != nil {
			return workflow.DraftPatch{}, err
		}
		p.Span = &span
	}
	return p, nil
}

func (h *BlockingHandler) Submit(c *gin.Context) {
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

func (h *BlockingHandler) Unblock(c *gin.Context) {
	wf, ok := h.form(c)
	if !ok {
		return
	}
	blockID, err := idParam(c, "blockId")
	if err != nil {
		httperr.From(c, err)
		return
	}

	ui := dialog.NewRecorder(true)
	affected, err := wf.Unblock(c.Request.Context(), blockID, ui)
	if err != nil {
		httperr.From(c, err)
		return
	}
	httpresp.Mutation(c, http.StatusOK, wf.View(), affected, ui)
}

func (h *BlockingHandler) Close(c *gin.Context) {
	h.registry.Remove(sessionOf(c), c.Param("id"))
	c.Status(http.StatusNoContent)
}

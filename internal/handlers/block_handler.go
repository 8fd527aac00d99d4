package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/httpresp"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
)

// BlockHandler serves blocks outside the blocking form: the list shown for a
// date and the direct unblock button of the agenda.
type BlockHandler struct {
	clock  timezone.Clock
	load   *agenda.LoadBlockingContext
	delete *agenda.DeleteBlock
}

func NewBlockHandler(d agenda.Deps) *BlockHandler {
	return &BlockHandler{
		clock:  d.Clock,
		load:   agenda.NewLoadBlockingContext(d),
		delete: agenda.NewDeleteBlock(d),
	}
}

func (h *BlockHandler) ListByDate(c *gin.Context) {
	date, err := dateQuery(c, "date", h.clock)
	if err != nil {
		httperr.From(c, err)
		return
	}

	bc, err := h.load.Execute(c.Request.Context(), date, nil)
	if err != nil {
		httperr.From(c, err)
		return
	}

	httpresp.OK(c, bc)
}

func (h *BlockHandler) Delete(c *gin.Context) {
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

	ui := dialog.NewRecorder(true)
	affected, err := h.delete.Execute(c.Request.Context(), actorOf(c), date, id)
	if err != nil {
		httperr.From(c, err)
		return
	}
	ui.Notify(dialog.Success("Bloqueo eliminado."))

	httpresp.Mutation(c, http.StatusOK, nil, affected, ui)
}

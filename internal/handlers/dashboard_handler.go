package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/dashboard"
	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/infra/backend"
)

type DashboardHandler struct {
	manager *dashboard.Manager
}

func NewDashboardHandler(m *dashboard.Manager) *DashboardHandler {
	return &DashboardHandler{manager: m}
}

func (h *DashboardHandler) aggregator(c *gin.Context) *dashboard.Aggregator {
	return h.manager.Ensure(sessionOf(c), backend.TokenFrom(c.Request.Context()))
}

// Get returns the latest snapshot; the first call for a session starts its
// poller, so it may still be loading.
func (h *DashboardHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator(c).Snapshot())
}

// Refresh runs a manual round. Other than an expired session, a failed round
// still answers with the last good data and the error inside the snapshot.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	agg := h.aggregator(c)
	if err := agg.Refresh(c.Request.Context(), dashboard.ModeManual); httperr.Is(err, httperr.KindAuth) {
		httperr.From(c, err)
		return
	}
	c.JSON(http.StatusOK, agg.Snapshot())
}

func (h *DashboardHandler) MarkNotificationsRead(c *gin.Context) {
	agg := h.aggregator(c)
	if err := agg.MarkAllRead(c.Request.Context()); err != nil {
		httperr.From(c, err)
		return
	}

	ui := dialog.NewRecorder(true)
	ui.Notify(dialog.Info("Notificaciones marcadas como leídas."))
	c.JSON(http.StatusOK, gin.H{
		"notifications": agg.Snapshot().Notifications,
		"notices":       ui.Notices(),
	})
}

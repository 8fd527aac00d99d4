package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
)

type ServiceHandler struct {
	list  *agenda.ListServices
	hours schedule.BusinessHours
}

func NewServiceHandler(list *agenda.ListServices, hours schedule.BusinessHours) *ServiceHandler {
	return &ServiceHandler{list: list, hours: hours}
}

// List returns the catalogue; fallback is true when the built-in list is
// served because the backend one could not be loaded.
func (h *ServiceHandler) List(c *gin.Context) {
	services, fallback, err := h.list.Execute(c.Request.Context())
	if err != nil {
		httperr.From(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     services,
		"total":    len(services),
		"fallback": fallback,
	})
}

func (h *ServiceHandler) BusinessHours(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"open":         h.hours.Open,
		"close":        h.hours.Close,
		"slot_minutes": h.hours.SlotMinutes,
		"grid":         h.hours.Grid(),
		"periods":      schedule.Periods(h.hours.Starts()),
	})
}

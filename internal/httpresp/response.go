package httpresp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// MutationResponse answers operations that change the agenda: the dates the
// client should reload and the notices the operator should see.
type MutationResponse struct {
	Data     any               `json:"data,omitempty"`
	Affected *models.DateRange `json:"affected,omitempty"`
	Notices  []dialog.Notice   `json:"notices"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func List[T any](c *gin.Context, data []T) {
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{
		Data:  data,
		Total: len(data),
	})
}

func Mutation(c *gin.Context, status int, data any, affected models.DateRange, ui *dialog.Recorder) {
	resp := MutationResponse{Data: data, Notices: []dialog.Notice{}}
	if affected.Valid() {
		resp.Affected = &affected
	}
	if ui != nil {
		resp.Notices = append(resp.Notices, ui.Notices()...)
	}
	c.JSON(status, resp)
}

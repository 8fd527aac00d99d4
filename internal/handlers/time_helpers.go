package handlers

import (
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/middleware"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
)

// --------------------------------------------------
// Request helpers shared by the dashboard handlers
// --------------------------------------------------

// dateQuery reads a YYYY-MM-DD query parameter; when missing it falls back
// to today in the shop time zone.
func dateQuery(c *gin.Context, key string, clock timezone.Clock) (civil.Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return timezone.Today(clock), nil
	}
	return parseDate(raw)
}

func parseDate(raw string) (civil.Date, error) {
	d, err := timezone.ParseDate(raw)
	if err != nil {
		return civil.Date{}, httperr.ErrValidation("invalid_date", "Fecha inválida.")
	}
	return d, nil
}

func parseTime(raw string) (models.TimeOfDay, error) {
	t, err := models.ParseTimeOfDay(raw)
	if err != nil {
		return 0, httperr.ErrValidation("invalid_time", "Horario inválido.")
	}
	return t, nil
}

func parseSpan(from, to string) (models.Interval, error) {
	start, err := parseTime(from)
	if err != nil {
		return models.Interval{}, err
	}
	end, err := parseTime(to)
	if err != nil {
		return models.Interval{}, err
	}
	return models.Interval{Start: start, End: end}, nil
}

func idParam(c *gin.Context, key string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || id == 0 {
		return 0, httperr.ErrValidation("invalid_id", "Identificador inválido.")
	}
	return uint(id), nil
}

func yearMonthQuery(c *gin.Context, clock timezone.Clock) (int, time.Month, error) {
	now := clock.Now()
	year, month := now.Year(), now.Month()

	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 2100 {
			return 0, 0, httperr.ErrValidation("invalid_year", "Año inválido.")
		}
		year = y
	}
	if s := c.Query("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, httperr.ErrValidation("invalid_month", "Mes inválido.")
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func actorOf(c *gin.Context) agenda.Actor {
	return agenda.Actor{
		UserID:   c.GetUint(middleware.ContextUserID),
		Username: c.GetString(middleware.ContextUsername),
	}
}

func sessionOf(c *gin.Context) string {
	return c.GetString(middleware.ContextSessionID)
}

// confirmed reads the explicit confirmation flag of destructive calls.
func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

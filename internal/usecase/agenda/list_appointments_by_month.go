package agenda

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/dto"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

type MonthCell struct {
	schedule.CalendarDay
	Badge            schedule.Classification `json:"badge"`
	PartiallyBlocked bool                    `json:"partially_blocked"`
	Booked           int                     `json:"booked"`
}

type MonthView struct {
	Year         int                `json:"year"`
	Month        time.Month         `json:"month"`
	Weeks        [][]MonthCell      `json:"weeks"`
	Appointments []dto.AgendaRowDTO `json:"appointments"`
	Blocks       []models.Block     `json:"blocks"`
}

type ListAppointmentsByMonth struct {
	d Deps
}

func NewListAppointmentsByMonth(d Deps) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{d: d}
}

// Execute builds the Monday-first month calendar with one availability badge
// per day of the month.
func (uc *ListAppointmentsByMonth) Execute(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	if month < time.January || month > time.December {
		return nil, httperr.ErrValidation("invalid_month", "Mes inválido.")
	}

	r := models.MonthRange(year, month)

	aps, err := uc.d.Agenda.Appointments(ctx, r)
	if err != nil {
		return nil, err
	}
	blocks, err := uc.d.Agenda.Blocks(ctx, r)
	if err != nil {
		return nil, err
	}

	now := uc.d.Clock.Now()
	today := civil.DateOf(now)
	ev := uc.d.evaluator()

	grid := schedule.MonthGrid(year, month, time.Monday, today)
	weeks := make([][]MonthCell, 0, len(grid))
	for _, row := range grid {
		cells := make([]MonthCell, 0, len(row))
		for _, day := range row {
			cell := MonthCell{CalendarDay: day}
			if day.InMonth {
				av := ev.Evaluate(schedule.DayInput{Date: day.Date, Appointments: aps, Blocks: blocks, Now: now})
				cell.Badge = av.Badge()
				cell.PartiallyBlocked = av.PartiallyBlocked
				cell.Booked = av.Booked
			}
			cells = append(cells, cell)
		}
		weeks = append(weeks, cells)
	}

	return &MonthView{
		Year:         year,
		Month:        month,
		Weeks:        weeks,
		Appointments: dto.AgendaRows(aps, now),
		Blocks:       blocks,
	}, nil
}

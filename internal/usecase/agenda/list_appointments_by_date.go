package agenda

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/dto"
)

type ListAppointmentsByDate struct {
	d Deps
}

func NewListAppointmentsByDate(d Deps) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{d: d}
}

// Execute lists the agenda rows of date ordered by start time.
func (uc *ListAppointmentsByDate) Execute(ctx context.Context, date civil.Date) ([]dto.AgendaRowDTO, error) {
	day, err := uc.d.Agenda.Day(ctx, date)
	if err != nil {
		return nil, err
	}

	aps := append(day.Appointments[:0:0], day.Appointments...)
	sort.SliceStable(aps, func(i, j int) bool { return aps[i].StartTime < aps[j].StartTime })

	return dto.AgendaRows(aps, uc.d.Clock.Now()), nil
}

package agenda

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
)

type AvailabilityOutput struct {
	schedule.DayAvailability
	Badge   schedule.Classification `json:"badge"`
	Periods []schedule.PeriodSlots  `json:"periods"`
}

type GetAvailability struct {
	d Deps
}

func NewGetAvailability(d Deps) *GetAvailability {
	return &GetAvailability{d: d}
}

func (uc *GetAvailability) Execute(ctx context.Context, date civil.Date) (*AvailabilityOutput, error) {
	return uc.ExecuteFor(ctx, date, 0)
}

// ExecuteFor only offers starts with room for a booking of the given minutes;
// zero means one slot.
func (uc *GetAvailability) ExecuteFor(ctx context.Context, date civil.Date, minutes int) (*AvailabilityOutput, error) {
	day, err := uc.d.Agenda.Day(ctx, date)
	if err != nil {
		return nil, err
	}

	av := uc.d.evaluator().Evaluate(schedule.DayInput{
		Date:         date,
		Appointments: day.Appointments,
		Blocks:       day.Blocks,
		Now:          uc.d.Clock.Now(),
		Duration:     minutes,
	})

	return &AvailabilityOutput{
		DayAvailability: av,
		Badge:           av.Badge(),
		Periods:         schedule.Periods(av.Bookable),
	}, nil
}

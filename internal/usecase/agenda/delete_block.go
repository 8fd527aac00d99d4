package agenda

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

type DeleteBlock struct {
	d Deps
}

func NewDeleteBlock(d Deps) *DeleteBlock {
	return &DeleteBlock{d: d}
}

// Execute removes a block; removing one that is already gone succeeds.
func (uc *DeleteBlock) Execute(ctx context.Context, actor Actor, date civil.Date, id uint) (models.DateRange, error) {
	if err := uc.d.Backend.DeleteBlock(ctx, id); err != nil {
		return models.DateRange{}, err
	}

	affected := models.SingleDay(date)
	uc.d.Agenda.Invalidate(ctx, affected)

	uc.d.record(actor, "block_deleted", "block", id, map[string]string{"date": date.String()})
	return affected, nil
}

// BlockingContext is what the blocking form shows for a date.
type BlockingContext struct {
	Date    civil.Date           `json:"date"`
	Blocks  []models.Block       `json:"blocks"`
	Pending []models.Appointment `json:"pending"`
}

type LoadBlockingContext struct {
	d Deps
}

func NewLoadBlockingContext(d Deps) *LoadBlockingContext {
	return &LoadBlockingContext{d: d}
}

// Execute asks the backend for the date's blocks and reads the active
// appointments inside span through the cache; a nil span means the whole day.
func (uc *LoadBlockingContext) Execute(ctx context.Context, date civil.Date, span *models.Interval) (*BlockingContext, error) {
	day := models.SingleDay(date)
	uc.d.Agenda.Invalidate(ctx, day)

	blocks, err := uc.d.Backend.BlocksOn(ctx, date)
	if err != nil {
		return nil, err
	}
	uc.d.Agenda.PutBlocks(ctx, day, blocks)

	aps, err := uc.d.Agenda.Appointments(ctx, day)
	if err != nil {
		return nil, err
	}

	return &BlockingContext{
		Date:    date,
		Blocks:  nonNil(blocks),
		Pending: nonNil(schedule.PendingIn(aps, date, span)),
	}, nil
}

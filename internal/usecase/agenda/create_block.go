package agenda

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateBlockInput struct {
	Date    civil.Date
	FullDay bool
	Span    *models.Interval
	Reason  string
}

func (in CreateBlockInput) Block() models.Block {
	b := models.Block{Date: in.Date, FullDay: in.FullDay, Reason: in.Reason}
	if !in.FullDay && in.Span != nil {
		s := *in.Span
		b.Span = &s
	}
	return b
}

// ======================================================
// USE CASE
// ======================================================

type CreateBlock struct {
	d Deps
}

func NewCreateBlock(d Deps) *CreateBlock {
	return &CreateBlock{d: d}
}

// Validate checks the draft on its own, before anything is fetched.
func (uc *CreateBlock) Validate(in CreateBlockInput) error {
	if !in.Date.IsValid() {
		return httperr.ErrValidation("invalid_date", "Fecha inválida.")
	}
	if in.FullDay && in.Date == civil.DateOf(uc.d.Clock.Now()) {
		return httperr.ErrValidation("full_day_today", "No se puede bloquear el día completo de hoy.")
	}
	if !in.FullDay {
		if in.Span == nil {
			return httperr.ErrValidation("invalid_range", "Indique hora de inicio y fin.")
		}
		if err := uc.d.Hours.ValidateSpan(*in.Span); err != nil {
			return err
		}
	}
	return validators.Text("reason", in.Reason)
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBlock) Execute(
	ctx context.Context,
	actor Actor,
	in CreateBlockInput,
) (*models.Block, models.DateRange, error) {

	// --------------------------------------------------
	// 1️⃣ Draft
	// --------------------------------------------------
	if err := uc.Validate(in); err != nil {
		return nil, models.DateRange{}, err
	}
	proposed := in.Block()

	// --------------------------------------------------
	// 2️⃣ Re-query the date
	// --------------------------------------------------
	day, err := uc.d.Agenda.Fresh(ctx, in.Date)
	if err != nil {
		return nil, models.DateRange{}, err
	}

	// --------------------------------------------------
	// 3️⃣ Conflicts
	// --------------------------------------------------
	if v := uc.d.checker().CheckBlock(proposed, day, uc.d.Clock.Now()); !v.Accepted() {
		uc.d.Metrics.Conflict("block", string(v.Reason))
		return nil, models.DateRange{}, v.Err()
	}

	// --------------------------------------------------
	// 4️⃣ Create
	// --------------------------------------------------
	created, err := uc.d.Backend.CreateBlock(ctx, schedule.NewBlock{
		Date:    proposed.Date,
		FullDay: proposed.FullDay,
		Span:    proposed.Span,
		Reason:  proposed.Reason,
	})
	if err != nil {
		return nil, models.DateRange{}, err
	}

	affected := models.SingleDay(in.Date)
	uc.d.Agenda.Invalidate(ctx, affected)

	var id uint
	if created != nil {
		id = created.ID
	}
	meta := map[string]any{"date": in.Date.String(), "full_day": in.FullDay}
	if proposed.Span != nil {
		meta["range"] = proposed.Span.String()
	}
	uc.d.record(actor, "block_created", "block", id, meta)

	return created, affected, nil
}

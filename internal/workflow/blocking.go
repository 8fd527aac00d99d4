package workflow

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
)

type BlockingState string

const (
	BlockingEditing    BlockingState = "editing"
	BlockingValidating BlockingState = "validating"
	BlockingSubmitting BlockingState = "submitting"
	BlockingCompleted  BlockingState = "completed"
	BlockingFailed     BlockingState = "failed"
)

var defaultDraftSpan = models.Interval{
	Start: models.MustTime("09:00"),
	End:   models.MustTime("12:00"),
}

type BlockDraft struct {
	Date    civil.Date       `json:"date"`
	FullDay bool             `json:"full_day"`
	Span    *models.Interval `json:"range,omitempty"`
	Reason  string           `json:"reason"`
}

func (d BlockDraft) input() agenda.CreateBlockInput {
	in := agenda.CreateBlockInput{Date: d.Date, FullDay: d.FullDay, Reason: d.Reason}
	if !d.FullDay && d.Span != nil {
		s := *d.Span
		in.Span = &s
	}
	return in
}

func (d BlockDraft) pendingSpan() *models.Interval {
	if d.FullDay {
		return nil
	}
	return d.Span
}

type BlockingView struct {
	State          BlockingState        `json:"state"`
	Draft          BlockDraft           `json:"draft"`
	FullDayAllowed bool                 `json:"full_day_allowed"`
	Blocks         []models.Block       `json:"blocks"`
	Pending        []models.Appointment `json:"pending"`
	Error          *Failure             `json:"error,omitempty"`
	Created        *models.Block        `json:"created,omitempty"`
}

type BlockingDeps struct {
	Load   *agenda.LoadBlockingContext
	Create *agenda.CreateBlock
	Delete *agenda.DeleteBlock
	Clock  timezone.Clock
}

// Blocking edits one block draft for a date and submits it. The existing
// blocks and active appointments of the selected date are kept alongside so
// the form can warn before anything is sent.
type Blocking struct {
	deps  BlockingDeps
	actor agenda.Actor

	mu           sync.Mutex
	state        BlockingState
	draft        BlockDraft
	appointments []models.Appointment
	blocks       []models.Block
	failure      *Failure
	created      *models.Block
	closed       bool
	epoch        int
}

// NewBlocking opens the form on today with a morning partial block.
func NewBlocking(deps BlockingDeps, actor agenda.Actor) *Blocking {
	span := defaultDraftSpan
	return &Blocking{
		deps:  deps,
		actor: actor,
		state: BlockingEditing,
		draft: BlockDraft{Date: timezone.Today(deps.Clock), Span: &span},
	}
}

func (b *Blocking) View() BlockingView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BlockingView{
		State:          b.state,
		Draft:          b.draft,
		FullDayAllowed: b.draft.Date != timezone.Today(b.deps.Clock),
		Blocks:         nonNil(b.blocks),
		Pending:        nonNil(schedule.PendingIn(b.appointments, b.draft.Date, b.draft.pendingSpan())),
		Error:          b.failure,
		Created:        b.created,
	}
}

// DraftPatch carries the draft fields an edit changes; nil fields are kept.
type DraftPatch struct {
	Date    *civil.Date
	FullDay *bool
	Span    *models.Interval
	Reason  *string
}

// editable is the common guard for draft changes. Callers hold mu.
func (b *Blocking) editable() error {
	switch {
	case b.closed || b.state == BlockingCompleted:
		return ErrClosed
	case b.state == BlockingValidating || b.state == BlockingSubmitting:
		return ErrBusy
	}
	return nil
}

// patched returns the draft p would produce, or the first rule it breaks.
// The date is applied first so the full-day rule sees the new date. Callers
// hold mu.
func (b *Blocking) patched(p DraftPatch) (BlockDraft, error) {
	next := b.draft
	if next.Span != nil {
		s := *next.Span
		next.Span = &s
	}
	today := timezone.Today(b.deps.Clock)

	if p.Date != nil {
		if p.Date.Before(today) {
			return BlockDraft{}, schedule.Verdict{Reason: schedule.ReasonPastDate}.Err()
		}
		next.Date = *p.Date
		if next.Date == today && next.FullDay && p.FullDay == nil {
			next.FullDay = false
			span := defaultDraftSpan
			next.Span = &span
		}
	}

	if p.FullDay != nil {
		if *p.FullDay && next.Date == today {
			return BlockDraft{}, httperr.ErrValidation("full_day_today", "No se puede bloquear el día completo de hoy.")
		}
		next.FullDay = *p.FullDay
		if next.FullDay {
			next.Span = nil
		} else if next.Span == nil {
			span := defaultDraftSpan
			next.Span = &span
		}
	}

	if p.Span != nil {
		if next.FullDay {
			return BlockDraft{}, httperr.ErrValidation("range_on_full_day", "Un bloqueo de día completo no lleva horario.")
		}
		span := *p.Span
		next.Span = &span
	}

	if p.Reason != nil {
		next.Reason = *p.Reason
	}
	return next, nil
}

// set applies p as a whole or not at all. Any accepted edit puts the form
// back into editing.
func (b *Blocking) set(p DraftPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.editable(); err != nil {
		return err
	}
	next, err := b.patched(p)
	if err != nil {
		return err
	}

	if next.Date != b.draft.Date {
		b.blocks, b.appointments = nil, nil
	}
	b.draft = next
	b.state = BlockingEditing
	b.failure = nil
	return nil
}

// Update applies several draft fields at once. Nothing changes when any of
// them is rejected; a new date is reloaded.
func (b *Blocking) Update(ctx context.Context, p DraftPatch) error {
	if err := b.set(p); err != nil {
		return err
	}
	if p.Date != nil {
		return b.Refresh(ctx)
	}
	return nil
}

// SetDate switches the draft to d and reloads what is already on it.
// Choosing today turns off the full-day option.
func (b *Blocking) SetDate(ctx context.Context, d civil.Date) error {
	return b.Update(ctx, DraftPatch{Date: &d})
}

// Refresh reloads the selected date. A response for a date the operator has
// moved away from is dropped.
func (b *Blocking) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.epoch++
	epoch, date := b.epoch, b.draft.Date
	b.mu.Unlock()

	bc, err := b.deps.Load.Execute(ctx, date, nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if epoch != b.epoch || b.draft.Date != date {
		return ErrStale
	}
	if err != nil {
		b.failure = failureOf(err)
		return err
	}

	b.blocks = bc.Blocks
	b.appointments = bc.Pending
	return nil
}

func (b *Blocking) SetFullDay(full bool) error {
	return b.set(DraftPatch{FullDay: &full})
}

func (b *Blocking) SetRange(span models.Interval) error {
	return b.set(DraftPatch{Span: &span})
}

func (b *Blocking) SetReason(reason string) error {
	return b.set(DraftPatch{Reason: &reason})
}

// Submit validates the draft, re-reads the date and refuses while active
// appointments fall inside the range before creating the block.
func (b *Blocking) Submit(ctx context.Context, ui dialog.UI) (*models.Block, models.DateRange, error) {
	b.mu.Lock()
	if b.closed || b.state == BlockingCompleted {
		b.mu.Unlock()
		return nil, models.DateRange{}, ErrClosed
	}
	if b.state != BlockingEditing && b.state != BlockingFailed {
		b.mu.Unlock()
		return nil, models.DateRange{}, ErrBusy
	}
	draft := b.draft
	b.state = BlockingValidating
	b.failure = nil
	b.epoch++
	epoch := b.epoch
	b.mu.Unlock()

	in := draft.input()
	if err := b.deps.Create.Validate(in); err != nil {
		return nil, models.DateRange{}, b.settle(BlockingEditing, err, nil)
	}

	bc, err := b.deps.Load.Execute(ctx, draft.Date, draft.pendingSpan())
	if err != nil {
		return nil, models.DateRange{}, b.settle(stateAfter(err), err, nil)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, models.DateRange{}, ErrClosed
	}
	if epoch == b.epoch {
		b.blocks = bc.Blocks
	}
	b.mu.Unlock()

	if len(bc.Pending) > 0 {
		err := schedule.Verdict{Reason: schedule.ReasonOverlapsAppointment}.Err()
		ui.Notify(dialog.Error(httperr.MessageOf(err)))
		return nil, models.DateRange{}, b.settle(BlockingEditing, err, bc.Pending)
	}

	b.mu.Lock()
	b.state = BlockingSubmitting
	b.mu.Unlock()

	created, affected, err := b.deps.Create.Execute(ctx, b.actor, in)
	if err != nil {
		if !httperr.Is(err, httperr.KindConflict) && !httperr.Is(err, httperr.KindValidation) {
			ui.Notify(dialog.Error("Error al crear el bloqueo. Por favor, intenta nuevamente."))
		}
		return nil, models.DateRange{}, b.settle(stateAfter(err), err, nil)
	}

	b.mu.Lock()
	if !b.closed {
		b.state = BlockingCompleted
		b.created = created
		b.closed = true
	}
	b.mu.Unlock()

	ui.Notify(dialog.Success("Bloqueo creado exitosamente."))
	return created, affected, nil
}

// settle records a failed submit and returns err.
func (b *Blocking) settle(state BlockingState, err error, pending []models.Appointment) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.state = state
	b.failure = failureOf(err)
	if pending != nil {
		b.appointments = pending
	}
	return err
}

func stateAfter(err error) BlockingState {
	switch httperr.KindOf(err) {
	case httperr.KindValidation, httperr.KindConflict:
		return BlockingEditing
	default:
		return BlockingFailed
	}
}

// Unblock deletes one of the date's existing blocks and reloads the date.
// It is allowed whatever the draft is doing.
func (b *Blocking) Unblock(ctx context.Context, id uint, ui dialog.UI) (models.DateRange, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return models.DateRange{}, ErrClosed
	}
	date := b.draft.Date
	for _, blk := range b.blocks {
		if blk.ID == id {
			date = blk.Date
		}
	}
	b.mu.Unlock()

	affected, err := b.deps.Delete.Execute(ctx, b.actor, date, id)
	if err != nil {
		ui.Notify(dialog.Error("Error al desbloquear. Por favor, intenta nuevamente."))
		return models.DateRange{}, err
	}
	ui.Notify(dialog.Success("Bloqueo eliminado."))

	if err := b.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return affected, err
	}
	return affected, nil
}

func (b *Blocking) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.epoch++
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

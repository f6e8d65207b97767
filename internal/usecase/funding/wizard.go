package funding

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAmountOutOfRange  = errors.New("funding amount out of range")
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrCommitInFlight    = errors.New("a commit is already in flight")
	ErrWizardNotFound    = errors.New("funding wizard not found")
	ErrSettlementFailed  = errors.New("settlement failed")
	ErrFullyFunded       = errors.New("listing is fully funded")
)

type Step string

const (
	StepAmountSelection Step = "amount_selection"
	StepConfirmation    Step = "confirmation"
	StepCommitting      Step = "committing"
	StepDone            Step = "done"
	StepCancelled       Step = "cancelled"
)

func (s Step) Terminal() bool { return s == StepDone || s == StepCancelled }

type Action string

const (
	ActionSetAmount Action = "set_amount"
	ActionContinue  Action = "continue"
	ActionBack      Action = "back"
	ActionConfirm   Action = "confirm"
	ActionCancel    Action = "cancel"
)

// Wizard is one funding attempt. Every method is safe for concurrent use;
// settlement runs outside the lock with the step held at Committing.
type Wizard struct {
	mu sync.Mutex

	id           uuid.UUID
	listingID    string
	lenderID     string
	amount       float64
	autoReinvest bool
	step         Step
	lastErr      string
	receipt      *Receipt
	createdAt    time.Time
}

func NewWizard(listingID, lenderID string, amount float64, now time.Time) *Wizard {
	return &Wizard{
		id:        uuid.New(),
		listingID: listingID,
		lenderID:  lenderID,
		amount:    amount,
		step:      StepAmountSelection,
		createdAt: now,
	}
}

func (w *Wizard) ID() uuid.UUID        { return w.id }
func (w *Wizard) ListingID() string    { return w.listingID }
func (w *Wizard) CreatedAt() time.Time { return w.createdAt }

// expired reports whether the wizard was created before cutoff. A wizard
// mid-commit never expires; its settlement is still running.
func (w *Wizard) expired(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step != StepCommitting && w.createdAt.Before(cutoff)
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// SetAmount clamps a into [0, limit].
func (w *Wizard) SetAmount(a, limit float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepAmountSelection {
		return ErrInvalidTransition
	}
	w.amount = clamp(a, limit)
	return nil
}

func (w *Wizard) SetAutoReinvest(on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepAmountSelection {
		return ErrInvalidTransition
	}
	w.autoReinvest = on
	return nil
}

// Continue advances to Confirmation when 0 < amount <= limit; otherwise the
// step is left unchanged.
func (w *Wizard) Continue(limit float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepAmountSelection {
		return ErrInvalidTransition
	}
	if w.amount <= 0 || w.amount > limit {
		return ErrAmountOutOfRange
	}
	w.step = StepConfirmation
	w.lastErr = ""
	return nil
}

func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepConfirmation {
		return ErrInvalidTransition
	}
	w.step = StepAmountSelection
	return nil
}

// BeginCommit moves Confirmation to Committing and returns the amount to settle.
func (w *Wizard) BeginCommit() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepConfirmation:
		w.step = StepCommitting
		w.lastErr = ""
		return w.amount, nil
	case StepCommitting:
		return 0, ErrCommitInFlight
	}
	return 0, ErrInvalidTransition
}

// FailCommit returns a failed commit to Confirmation so the user can retry.
func (w *Wizard) FailCommit(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepCommitting {
		return
	}
	w.step = StepConfirmation
	w.lastErr = err.Error()
}

func (w *Wizard) Finish(r Receipt) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepCommitting {
		return
	}
	w.step = StepDone
	w.receipt = &r
}

// Cancel is allowed before a commit starts. Nothing is written to the store.
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepAmountSelection, StepConfirmation:
		w.step = StepCancelled
		return nil
	case StepCommitting:
		return ErrCommitInFlight
	}
	return ErrInvalidTransition
}

// State is a copy of the wizard safe to hand to the presentation layer.
type State struct {
	ID           string
	ListingID    string
	LenderID     string
	Step         Step
	Amount       float64
	AutoReinvest bool
	LastError    string
	Receipt      *Receipt
	Actions      []Action
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		ID:           w.id.String(),
		ListingID:    w.listingID,
		LenderID:     w.lenderID,
		Step:         w.step,
		Amount:       w.amount,
		AutoReinvest: w.autoReinvest,
		LastError:    w.lastErr,
		Receipt:      w.receipt,
		Actions:      actionsFor(w.step),
	}
}

func actionsFor(s Step) []Action {
	switch s {
	case StepAmountSelection:
		return []Action{ActionSetAmount, ActionContinue, ActionCancel}
	case StepConfirmation:
		return []Action{ActionBack, ActionConfirm, ActionCancel}
	}
	return []Action{}
}

func clamp(a, limit float64) float64 {
	if a < 0 {
		return 0
	}
	if a > limit {
		return limit
	}
	return a
}

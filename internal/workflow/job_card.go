package workflow

import (
	"fmt"
	"strings"
	"time"

	"garage/internal/model"
)

// statusEdges are the transitions reachable through ChangeStatus. Frozen and
// Closed have their own commands.
var statusEdges = map[model.JobCardState][]model.JobCardState{
	model.JobCardOpen:       {model.JobCardInProgress},
	model.JobCardInProgress: {model.JobCardOpen, model.JobCardCompleted},
	model.JobCardCompleted:  {model.JobCardInProgress},
}

// CanChangeStatus reports whether ChangeStatus would accept from -> to
func CanChangeStatus(from, to model.JobCardState) bool {
	for _, s := range statusEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ChangeStatus moves the card along Open <-> InProgress <-> Completed
func ChangeStatus(actor Actor, card *model.JobCard, target model.JobCardState, now time.Time) error {
	if err := Authorize(actor.Role, ActionChangeJobCardStatus); err != nil {
		return err
	}
	if card.State == model.JobCardClosed {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, ErrJobCardClosed)
	}
	if !CanChangeStatus(card.State, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, card.State, target)
	}

	card.State = target
	switch target {
	case model.JobCardCompleted:
		card.CompletedAt = &now
	case model.JobCardInProgress:
		card.CompletedAt = nil
	}
	return nil
}

// Freeze pauses an Open or InProgress card, remembering where to resume
func Freeze(actor Actor, card *model.JobCard, reason string, now time.Time) error {
	if err := Authorize(actor.Role, ActionFreezeJobCard); err != nil {
		return err
	}
	switch card.State {
	case model.JobCardClosed:
		return ErrJobCardClosed
	case model.JobCardFrozen:
		return ErrAlreadyFrozen
	case model.JobCardOpen, model.JobCardInProgress:
	default:
		return fmt.Errorf("%w: cannot freeze a %s job card", ErrInvalidTransition, card.State)
	}

	card.ResumeState = card.State
	card.State = model.JobCardFrozen
	card.FrozenAt = &now
	card.FreezeReason = strings.TrimSpace(reason)
	return nil
}

// Unfreeze returns a Frozen card to the state it was frozen from
func Unfreeze(actor Actor, card *model.JobCard) error {
	if err := Authorize(actor.Role, ActionUnfreezeJobCard); err != nil {
		return err
	}
	if card.State == model.JobCardClosed {
		return ErrJobCardClosed
	}
	if card.State != model.JobCardFrozen {
		return ErrNotFrozen
	}

	resume := card.ResumeState
	if resume != model.JobCardOpen && resume != model.JobCardInProgress {
		resume = model.JobCardInProgress
	}
	card.State = resume
	card.ResumeState = ""
	card.FrozenAt = nil
	card.FreezeReason = ""
	return nil
}

// Close terminates the card. Closing anything other than a Completed card is
// an administrative override and needs the Admin role.
func Close(actor Actor, card *model.JobCard, notes string, now time.Time) error {
	if err := Authorize(actor.Role, ActionCloseJobCard); err != nil {
		return err
	}
	if card.State == model.JobCardClosed {
		return ErrAlreadyClosed
	}
	if card.State != model.JobCardCompleted && actor.Role != model.RoleAdmin {
		return fmt.Errorf("%w: closing a %s job card requires admin override", ErrForbidden, card.State)
	}

	card.State = model.JobCardClosed
	card.ResumeState = ""
	card.ClosedAt = &now
	card.CloseNotes = strings.TrimSpace(notes)
	return nil
}

// SetPriority is idempotent while the card is not closed
func SetPriority(actor Actor, card *model.JobCard, flag bool) error {
	if err := Authorize(actor.Role, ActionSetPriority); err != nil {
		return err
	}
	if card.State == model.JobCardClosed {
		return ErrJobCardClosed
	}
	card.Priority = flag
	return nil
}

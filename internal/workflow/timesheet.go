package workflow

import (
	"strings"
	"time"

	"garage/internal/model"

	"github.com/shopspring/decimal"
)

// ClockIn opens a timesheet for the acting technician. hasOpen tells whether the
// technician already has an open span on this card.
func ClockIn(actor Actor, card *model.JobCard, hasOpen bool, notes string, now time.Time) (*model.Timesheet, error) {
	if err := Authorize(actor.Role, ActionClockIn); err != nil {
		return nil, err
	}
	switch card.State {
	case model.JobCardClosed:
		return nil, ErrJobCardClosed
	case model.JobCardFrozen:
		return nil, ErrJobCardFrozen
	}
	if !IsAssigned(card, actor.EmployeeID) {
		return nil, ErrNotAssigned
	}
	if hasOpen {
		return nil, ErrAlreadyClockedIn
	}
	return &model.Timesheet{
		JobCardID:  card.ID,
		EmployeeID: actor.EmployeeID,
		ClockIn:    now,
		Notes:      strings.TrimSpace(notes),
	}, nil
}

// ClockOut closes a span. Only its technician or an admin may close it.
func ClockOut(actor Actor, ts *model.Timesheet, notes string, now time.Time) error {
	if err := Authorize(actor.Role, ActionClockOut); err != nil {
		return err
	}
	if actor.Role != model.RoleAdmin && actor.EmployeeID != ts.EmployeeID {
		return ErrForbidden
	}
	if ts.ClockOut != nil {
		return ErrNotClockedIn
	}
	if now.Before(ts.ClockIn) {
		now = ts.ClockIn
	}
	ts.ClockOut = &now
	ts.Notes = appendNote(ts.Notes, notes)
	return nil
}

// Hours is the span length in hours rounded to 2dp; zero while still open
func Hours(ts *model.Timesheet) decimal.Decimal {
	if ts.ClockOut == nil {
		return decimal.Zero
	}
	minutes := decimal.NewFromFloat(ts.ClockOut.Sub(ts.ClockIn).Minutes())
	return Money(minutes.Div(decimal.NewFromInt(60)))
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobCardState is the explicit lifecycle state of a job card
type JobCardState string

const (
	JobCardOpen       JobCardState = "OPEN"
	JobCardInProgress JobCardState = "IN_PROGRESS"
	JobCardFrozen     JobCardState = "FROZEN"
	JobCardCompleted  JobCardState = "COMPLETED"
	JobCardClosed     JobCardState = "CLOSED"
)

// JobCard is a unit of repair work on one vehicle.
// State is authoritative; FrozenAt/ClosedAt/CompletedAt are audit metadata.
type JobCard struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Number              string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	Name                string              `gorm:"type:varchar(255);not null" json:"name"`
	ClientID            uuid.UUID           `gorm:"type:uuid;not null;index" json:"client_id"`
	VehicleID           uuid.UUID           `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	ServiceAdvisorID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"service_advisor_id"`
	SupervisorID        *uuid.UUID          `gorm:"type:uuid;index" json:"supervisor_id"`
	State               JobCardState        `gorm:"type:varchar(20);not null;index" json:"state"`
	ResumeState         JobCardState        `gorm:"type:varchar(20)" json:"resume_state,omitempty"` // Where unfreeze returns to
	Priority            bool                `gorm:"not null;default:false" json:"priority"`
	DateIn              time.Time           `gorm:"not null" json:"date_in"`
	EstimatedCompletion *time.Time          `json:"estimated_completion"`
	Deadline            *time.Time          `json:"deadline"`
	FrozenAt            *time.Time          `json:"frozen_at"`
	FreezeReason        string              `gorm:"type:text" json:"freeze_reason,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at"`
	ClosedAt            *time.Time          `json:"closed_at"`
	CloseNotes          string              `gorm:"type:text" json:"close_notes,omitempty"`
	StateChecklistID    *uuid.UUID          `gorm:"type:uuid" json:"state_checklist_id"`
	ServiceChecklistID  *uuid.UUID          `gorm:"type:uuid" json:"service_checklist_id"`
	ControlChecklistID  *uuid.UUID          `gorm:"type:uuid" json:"control_checklist_id"`
	Technicians         []JobCardTechnician `gorm:"foreignKey:JobCardID" json:"technicians"`
	Version             int64               `gorm:"not null;default:1" json:"version"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func (j *JobCard) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	if j.Version == 0 {
		j.Version = 1
	}
	return nil
}

// TechnicianIDs returns the roster as plain ids
func (j *JobCard) TechnicianIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(j.Technicians))
	for _, t := range j.Technicians {
		ids = append(ids, t.EmployeeID)
	}
	return ids
}

// JobCardTechnician is one roster entry. The pair is unique.
type JobCardTechnician struct {
	JobCardID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"job_card_id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"employee_id"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
}

// Timesheet is one clock-in/clock-out span of a technician on a job card.
// At most one span per technician and card is open.
type Timesheet struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	JobCardID  uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_timesheet_open,where:clock_out IS NULL" json:"job_card_id"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_timesheet_open,where:clock_out IS NULL" json:"employee_id"`
	ClockIn    time.Time  `gorm:"not null" json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out"`
	Notes      string     `gorm:"type:text" json:"notes"`
	Version    int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (t *Timesheet) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}

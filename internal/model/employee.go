package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the workshop role an employee acts under
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleServiceAdvisor Role = "SERVICE_ADVISOR"
	RoleSupervisor     Role = "SUPERVISOR"
	RoleTechnician     Role = "TECHNICIAN"
	RoleStores         Role = "STORES"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleServiceAdvisor, RoleSupervisor, RoleTechnician, RoleStores:
		return true
	}
	return false
}

// Employee is a garage staff member. Authentication lives elsewhere; the
// workflow only needs the id and role.
type Employee struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role      Role           `gorm:"type:varchar(30);not null;index" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// ensureID assigns a fresh id when the caller did not set one. Done in Go
// rather than with gen_random_uuid() so the same models run on sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

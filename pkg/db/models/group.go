package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a lending group within a branch.
type Group struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BranchID  *uuid.UUID `gorm:"column:branch_id;type:uuid"`
	Name      string     `gorm:"column:name;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

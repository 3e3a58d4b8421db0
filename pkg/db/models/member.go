package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// Member is a registered client of the institution. Registration creates the
// savings/drawdown account pair in the same transaction; accounts are never
// deleted, only deactivated through the member status.
type Member struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BranchID    *uuid.UUID         `gorm:"column:branch_id;type:uuid"`
	GroupID     *uuid.UUID         `gorm:"column:group_id;type:uuid"`
	FirstName   string             `gorm:"column:first_name;not null"`
	LastName    string             `gorm:"column:last_name;not null"`
	PhoneNumber string             `gorm:"column:phone_number;not null;uniqueIndex"`
	NationalID  *string            `gorm:"column:national_id"`
	Status      enums.MemberStatus `gorm:"column:status;not null;default:pending"`
	Accounts    []Account          `gorm:"foreignKey:MemberID"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

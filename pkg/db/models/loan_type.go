package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// LoanType is an interest policy. It is immutable per use: a loan snapshots
// its computed financial terms at application time, so later edits to a loan
// type never retroactively affect existing loans.
type LoanType struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string             `gorm:"column:name;not null;uniqueIndex"`
	InterestRate        decimal.Decimal    `gorm:"column:interest_rate;type:numeric(7,4);not null"`
	InterestType        enums.InterestType `gorm:"column:interest_type;not null"`
	ChargeFeePercentage decimal.Decimal    `gorm:"column:charge_fee_percentage;type:numeric(7,4);not null;default:0"`
	MinAmount           decimal.Decimal    `gorm:"column:min_amount;type:numeric(14,2);not null"`
	MaxAmount           decimal.Decimal    `gorm:"column:max_amount;type:numeric(14,2);not null"`
	DurationMonths      int                `gorm:"column:duration_months;not null"`
	IsActive            bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// Account holds a member's cached balance for one account type. The balance
// is a materialized view over the transaction log: it must always equal the
// sum of signed amounts of all transactions referencing this account.
type Account struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID  uuid.UUID         `gorm:"column:member_id;type:uuid;not null;uniqueIndex:ux_accounts_member_type,priority:1"`
	Type      enums.AccountType `gorm:"column:type;not null;uniqueIndex:ux_accounts_member_type,priority:2"`
	Balance   decimal.Decimal   `gorm:"column:balance;type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

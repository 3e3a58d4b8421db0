package members

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// RegisterInput opens a new member with their account pair. InitialDeposit and
// RegistrationFee are optional; the fee is debited from the savings account and
// must be covered by the deposit.
type RegisterInput struct {
	FirstName       string           `json:"first_name" validate:"required"`
	LastName        string           `json:"last_name" validate:"required"`
	PhoneNumber     string           `json:"phone_number" validate:"required"`
	NationalID      *string          `json:"national_id,omitempty"`
	BranchID        *uuid.UUID       `json:"branch_id,omitempty"`
	GroupID         *uuid.UUID       `json:"group_id,omitempty"`
	InitialDeposit  *decimal.Decimal `json:"initial_deposit,omitempty"`
	RegistrationFee *decimal.Decimal `json:"registration_fee,omitempty"`
}

// AccountDTO is the transport shape for a member account.
type AccountDTO struct {
	ID      uuid.UUID         `json:"id"`
	Type    enums.AccountType `json:"type"`
	Balance decimal.Decimal   `json:"balance"`
}

// MemberDTO is the transport shape for a member record.
type MemberDTO struct {
	ID          uuid.UUID          `json:"id"`
	BranchID    *uuid.UUID         `json:"branch_id,omitempty"`
	GroupID     *uuid.UUID         `json:"group_id,omitempty"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	PhoneNumber string             `json:"phone_number"`
	NationalID  *string            `json:"national_id,omitempty"`
	Status      enums.MemberStatus `json:"status"`
	Accounts    []AccountDTO       `json:"accounts,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// BranchDTO is the transport shape for a branch.
type BranchDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
}

// GroupDTO is the transport shape for a lending group.
type GroupDTO struct {
	ID       uuid.UUID  `json:"id"`
	BranchID *uuid.UUID `json:"branch_id,omitempty"`
	Name     string     `json:"name"`
}

// ToDTO converts a member model to the external DTO.
func ToDTO(member *models.Member) *MemberDTO {
	if member == nil {
		return nil
	}
	dto := &MemberDTO{
		ID:          member.ID,
		BranchID:    member.BranchID,
		GroupID:     member.GroupID,
		FirstName:   member.FirstName,
		LastName:    member.LastName,
		PhoneNumber: member.PhoneNumber,
		NationalID:  member.NationalID,
		Status:      member.Status,
		CreatedAt:   member.CreatedAt,
		UpdatedAt:   member.UpdatedAt,
	}
	for _, account := range member.Accounts {
		dto.Accounts = append(dto.Accounts, AccountDTO{
			ID:      account.ID,
			Type:    account.Type,
			Balance: account.Balance,
		})
	}
	return dto
}

// ToDTOs converts a slice of member models.
func ToDTOs(list []models.Member) []MemberDTO {
	dtos := make([]MemberDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, *ToDTO(&list[i]))
	}
	return dtos
}

// ToBranchDTOs converts branch models.
func ToBranchDTOs(branches []models.Branch) []BranchDTO {
	dtos := make([]BranchDTO, 0, len(branches))
	for _, branch := range branches {
		dtos = append(dtos, BranchDTO{ID: branch.ID, Name: branch.Name, Code: branch.Code})
	}
	return dtos
}

// ToGroupDTOs converts group models.
func ToGroupDTOs(groups []models.Group) []GroupDTO {
	dtos := make([]GroupDTO, 0, len(groups))
	for _, group := range groups {
		dtos = append(dtos, GroupDTO{ID: group.ID, BranchID: group.BranchID, Name: group.Name})
	}
	return dtos
}

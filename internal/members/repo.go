package members

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// MemberFilter narrows member listings.
type MemberFilter struct {
	BranchID *uuid.UUID
	GroupID  *uuid.UUID
	Status   *enums.MemberStatus
	Limit    int
	Offset   int
}

// Repository manages member and organisation persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(member *models.Member) error
	CreateAccount(account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	List(ctx context.Context, filter MemberFilter) ([]models.Member, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MemberStatus) (bool, error)
	GetBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	ListBranches(ctx context.Context) ([]models.Branch, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error)
	ListGroups(ctx context.Context, branchID *uuid.UUID) ([]models.Group, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a member repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(member *models.Member) error {
	return r.db.Create(member).Error
}

func (r *repository) CreateAccount(account *models.Account) error {
	return r.db.Create(account).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).
		Preload("Accounts").
		First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) List(ctx context.Context, filter MemberFilter) ([]models.Member, error) {
	query := r.db.WithContext(ctx).Model(&models.Member{})
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var list []models.Member
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MemberStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) GetBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repository) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *repository) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) ListGroups(ctx context.Context, branchID *uuid.UUID) ([]models.Group, error) {
	query := r.db.WithContext(ctx).Model(&models.Group{})
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	var groups []models.Group
	if err := query.Order("name ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

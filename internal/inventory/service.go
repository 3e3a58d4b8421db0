package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
)

// ReservationRequest asks for quantity units of one product.
type ReservationRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ReservationResult reports the outcome for one request. A failed request
// carries a human-readable reason and leaves stock untouched.
type ReservationResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reserved  bool      `json:"reserved"`
	Reason    string    `json:"reason,omitempty"`
}

// Service implements stock reservation. Reservation and consumption are a
// single decrement: stock leaves the pool at application time, so committing
// at disbursement never touches inventory again.
type Service interface {
	ReserveInTx(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error)
	ReleaseInTx(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error
	Commit(ctx context.Context, requests []ReservationRequest) error
}

type service struct {
	repo Repository
}

// NewService wires the inventory reservation service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func validateRequests(requests []ReservationRequest) error {
	if len(requests) == 0 {
		return apperrors.New(apperrors.CodeValidation, "at least one reservation request is required")
	}
	for _, request := range requests {
		if request.ProductID == uuid.Nil {
			return apperrors.New(apperrors.CodeValidation, "product id is required")
		}
		if request.Quantity <= 0 {
			return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}
	}
	return nil
}

// ReserveInTx decrements stock for each request inside the caller's
// transaction. Results report per-request outcomes; the caller decides
// whether a failed request aborts the transaction.
func (s *service) ReserveInTx(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateRequests(requests); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	results := make([]ReservationResult, 0, len(requests))
	for _, request := range requests {
		result := ReservationResult{ProductID: request.ProductID, Quantity: request.Quantity}

		taken, err := repo.DecrementStock(ctx, request.ProductID, request.Quantity)
		if err != nil {
			return nil, err
		}
		if taken {
			result.Reserved = true
			results = append(results, result)
			continue
		}

		product, err := repo.GetProduct(ctx, request.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Reason = "product not found"
				results = append(results, result)
				continue
			}
			return nil, err
		}
		result.Reason = fmt.Sprintf("insufficient stock: %d available, %d requested",
			product.StockQuantity, request.Quantity)
		results = append(results, result)
	}
	return results, nil
}

// ReleaseInTx returns previously reserved stock. The caller must guard this
// with the owning loan's status transition so a cancelled loan can never
// re-credit stock twice.
func (s *service) ReleaseInTx(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if err := validateRequests(requests); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	for _, request := range requests {
		if err := repo.IncrementStock(ctx, request.ProductID, request.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Commit confirms reserved stock at disbursement. Stock already left the
// pool at application time, so this only verifies the products still exist.
func (s *service) Commit(ctx context.Context, requests []ReservationRequest) error {
	if err := validateRequests(requests); err != nil {
		return err
	}
	for _, request := range requests {
		if _, err := s.repo.GetProduct(ctx, request.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "loan product not found")
			}
			return err
		}
	}
	return nil
}

// AllReserved reports whether every request in the batch succeeded.
func AllReserved(results []ReservationResult) bool {
	for _, result := range results {
		if !result.Reserved {
			return false
		}
	}
	return true
}

// FirstFailure returns the first failed result, if any.
func FirstFailure(results []ReservationResult) (ReservationResult, bool) {
	for _, result := range results {
		if !result.Reserved {
			return result, true
		}
	}
	return ReservationResult{}, false
}

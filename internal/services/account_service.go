// Package services – AccountService
//
// AccountService registers connected business accounts and resolves the
// page access token used for private replies.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-ig-automation/internal/domain"
)

// AccountRepo defines the repository contract required by AccountService.
type AccountRepo interface {
	// UpsertAccount inserts or updates an account by id.
	UpsertAccount(ctx context.Context, db *gorm.DB, a *domain.Account) error

	// GetAccount fetches an account by id.
	GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error)
}

// AccountService manages connected accounts.
type AccountService struct {
	DB   *gorm.DB
	Repo AccountRepo
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, r AccountRepo) *AccountService {
	return &AccountService{DB: db, Repo: r}
}

// Register stores or refreshes the account identified by a.ID.
func (s *AccountService) Register(ctx context.Context, a *domain.Account) error {
	a.ID = strings.TrimSpace(a.ID)
	if a.ID == "" {
		return ErrInvalidID
	}
	a.PageToken = strings.TrimSpace(a.PageToken)
	return s.Repo.UpsertAccount(ctx, s.DB, a)
}

// Get returns the account or ErrAccountNotFound.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	a, err := s.Repo.GetAccount(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// PageToken returns the stored page token for accountID, or "" when the
// account is unknown or has none.
func (s *AccountService) PageToken(ctx context.Context, accountID string) (string, error) {
	a, err := s.Get(ctx, accountID)
	if errors.Is(err, ErrAccountNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return a.PageToken, nil
}

package service

import (
	"context"
	"errors"

	"github.com/campusnotes/campusnotes/internal/identity/domain"
	"github.com/campusnotes/campusnotes/internal/identity/store"
	"github.com/campusnotes/campusnotes/pkg/cryptox"
)

var (
	// ErrPromotionDisabled reports that no admin code is configured.
	ErrPromotionDisabled = errors.New("user: admin promotion is not configured")

	// ErrBadPromotionCode reports a wrong admin code.
	ErrBadPromotionCode = errors.New("user: admin code does not match")
)

type UserService struct {
	Store store.Store

	// AdminCodeHash is the argon2id hash of the promotion code. Empty
	// disables promotion entirely.
	AdminCodeHash string
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ListIdentities returns the provider identities linked to a user.
func (s *UserService) ListIdentities(ctx context.Context, userID string) ([]domain.LinkedIdentity, error) {
	return s.Store.Identities().ListIdentitiesByUser(ctx, userID)
}

// Promote flips is_admin for the user when the presented code matches the
// configured hash. This is the only path that mutates the admin flag; the
// resolver never touches it.
func (s *UserService) Promote(ctx context.Context, userID, code string) error {
	if s.AdminCodeHash == "" {
		return ErrPromotionDisabled
	}

	if err := cryptox.VerifySecret(code, s.AdminCodeHash); err != nil {
		if errors.Is(err, cryptox.ErrSecretMismatch) {
			return ErrBadPromotionCode
		}
		return err
	}

	return s.Store.Users().SetAdmin(ctx, userID, true)
}

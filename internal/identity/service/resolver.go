package service

import (
	"context"
	"errors"
	"strings"

	"github.com/campusnotes/campusnotes/internal/identity/domain"
	"github.com/campusnotes/campusnotes/internal/identity/store"
	"github.com/campusnotes/campusnotes/pkg/idx"
)

var (
	// ErrMissingEmail rejects a callback whose profile carries no email.
	// Email is the sole cross-provider merge key; without it the resolver
	// cannot decide merge-vs-create safely, so nothing is written.
	ErrMissingEmail = errors.New("resolver: provider did not supply an email")

	// ErrAlreadyLinkedElsewhere rejects a link attempt for a provider
	// identity owned by a different account. Attaching it would silently
	// merge two accounts.
	ErrAlreadyLinkedElsewhere = errors.New("resolver: identity already linked to another account")

	// ErrStorageConflict surfaces when the unique-constraint retry also
	// failed. Transient; the caller reports it like an upstream failure.
	ErrStorageConflict = errors.New("resolver: storage conflict after retry")
)

// ResolverService maps one OAuth callback event to exactly one resolution
// outcome. It is the only component that writes users and linked identities.
type ResolverService struct {
	Store store.Store
}

// Resolve decides which local account owns the session after a provider
// callback. The read-then-write sequence runs inside a single transaction;
// the unique indexes on users.email and (provider, provider_user_id) are the
// backstop for concurrent callbacks. Losing an insert race is retried once
// as a lookup-then-merge before surfacing ErrStorageConflict.
func (s *ResolverService) Resolve(
	ctx context.Context,
	actor domain.Actor,
	providerName string,
	profile domain.Profile,
	token domain.ProviderToken,
) (domain.Resolution, error) {
	if profile.Email == "" {
		return domain.Resolution{}, ErrMissingEmail
	}

	res, err := s.resolveTx(ctx, actor, providerName, profile, token)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Someone else won the race; their row is committed now, so a second
		// pass takes the lookup path instead of the insert path.
		res, err = s.resolveTx(ctx, actor, providerName, profile, token)
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Resolution{}, ErrStorageConflict
		}
	}
	return res, err
}

func (s *ResolverService) resolveTx(
	ctx context.Context,
	actor domain.Actor,
	providerName string,
	profile domain.Profile,
	token domain.ProviderToken,
) (domain.Resolution, error) {
	var res domain.Resolution
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if actor.IsAnonymous() {
			res, err = s.login(ctx, tx, providerName, profile, token)
		} else {
			res, err = s.link(ctx, tx, actor.UserID, providerName, profile, token)
		}
		return err
	})
	if err != nil {
		return domain.Resolution{}, err
	}
	return res, nil
}

// link handles an already-authenticated user attaching a provider.
func (s *ResolverService) link(
	ctx context.Context,
	tx store.Tx,
	userID, providerName string,
	profile domain.Profile,
	token domain.ProviderToken,
) (domain.Resolution, error) {
	existing, err := tx.Identities().GetIdentity(ctx, providerName, profile.ProviderUserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		li := domain.LinkedIdentity{
			Provider:       providerName,
			ProviderUserID: profile.ProviderUserID,
			UserID:         userID,
			Token:          token,
		}
		if err := tx.Identities().CreateIdentity(ctx, li); err != nil {
			return domain.Resolution{}, err
		}

	case err != nil:
		return domain.Resolution{}, err

	case existing.UserID != userID:
		// Never repoint ownership; that would merge two accounts silently.
		return domain.Resolution{}, ErrAlreadyLinkedElsewhere

	default:
		merged := token.MergeRefreshFrom(existing.Token)
		if err := tx.Identities().UpdateToken(ctx, providerName, profile.ProviderUserID, merged); err != nil {
			return domain.Resolution{}, err
		}
	}

	return domain.Resolution{Outcome: domain.OutcomeLinked, UserID: userID}, nil
}

// login handles an anonymous callback: returning identity, merge by email,
// or a brand new account.
func (s *ResolverService) login(
	ctx context.Context,
	tx store.Tx,
	providerName string,
	profile domain.Profile,
	token domain.ProviderToken,
) (domain.Resolution, error) {
	existing, err := tx.Identities().GetIdentity(ctx, providerName, profile.ProviderUserID)
	if err == nil {
		// Returning user via this exact provider identity. Providers may omit
		// the refresh token on repeat consent; keep the stored one then.
		merged := token.MergeRefreshFrom(existing.Token)
		if err := tx.Identities().UpdateToken(ctx, providerName, profile.ProviderUserID, merged); err != nil {
			return domain.Resolution{}, err
		}
		return domain.Resolution{Outcome: domain.OutcomeReturning, UserID: existing.UserID}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Resolution{}, err
	}

	owner, err := tx.Users().GetUserByEmail(ctx, profile.Email)
	if err == nil {
		// A different provider, same email: implicit merge-by-email.
		li := domain.LinkedIdentity{
			Provider:       providerName,
			ProviderUserID: profile.ProviderUserID,
			UserID:         owner.ID,
			Token:          token,
		}
		if err := tx.Identities().CreateIdentity(ctx, li); err != nil {
			return domain.Resolution{}, err
		}
		return domain.Resolution{Outcome: domain.OutcomeMergedByEmail, UserID: owner.ID}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Resolution{}, err
	}

	user := domain.User{
		ID:          idx.New().String(),
		Email:       profile.Email,
		DisplayName: displayNameOrDefault(profile),
	}
	if err := tx.Users().CreateUser(ctx, user); err != nil {
		return domain.Resolution{}, err
	}

	li := domain.LinkedIdentity{
		Provider:       providerName,
		ProviderUserID: profile.ProviderUserID,
		UserID:         user.ID,
		Token:          token,
	}
	if err := tx.Identities().CreateIdentity(ctx, li); err != nil {
		return domain.Resolution{}, err
	}

	return domain.Resolution{Outcome: domain.OutcomeNewUser, UserID: user.ID}, nil
}

// displayNameOrDefault falls back to the local part of the email when the
// provider did not report a display name.
func displayNameOrDefault(p domain.Profile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	local, _, _ := strings.Cut(p.Email, "@")
	return local
}

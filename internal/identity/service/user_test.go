package service

import (
	"context"
	"testing"

	"github.com/campusnotes/campusnotes/internal/identity/domain"
	"github.com/campusnotes/campusnotes/pkg/cryptox"
	"github.com/campusnotes/campusnotes/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestPromote(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	user := domain.User{ID: idx.New().String(), Email: "a@x.com", DisplayName: "A"}
	require.NoError(t, st.Users().CreateUser(ctx, user))

	hash, err := cryptox.HashSecret("let-me-in")
	require.NoError(t, err)

	t.Run("disabled when no hash is configured", func(t *testing.T) {
		svc := &UserService{Store: st}
		require.ErrorIs(t, svc.Promote(ctx, user.ID, "let-me-in"), ErrPromotionDisabled)
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		svc := &UserService{Store: st, AdminCodeHash: hash}
		require.ErrorIs(t, svc.Promote(ctx, user.ID, "wrong"), ErrBadPromotionCode)

		u, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, u.IsAdmin)
	})

	t.Run("right code grants admin", func(t *testing.T) {
		svc := &UserService{Store: st, AdminCodeHash: hash}
		require.NoError(t, svc.Promote(ctx, user.ID, "let-me-in"))

		u, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, u.IsAdmin)
	})
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	user := domain.User{ID: idx.New().String(), Email: "a@x.com", DisplayName: "A"}
	require.NoError(t, st.Users().CreateUser(ctx, user))
	require.NoError(t, st.Identities().CreateIdentity(ctx, domain.LinkedIdentity{
		Provider:       "google",
		ProviderUserID: "g1",
		UserID:         user.ID,
	}))

	got, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)

	identities, err := svc.ListIdentities(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, identities, 1)
	require.Equal(t, "google", identities[0].Provider)
}

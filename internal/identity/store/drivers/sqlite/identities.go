package sqlite

import (
	"context"
	"time"

	"github.com/campusnotes/campusnotes/internal/identity/domain"
	"github.com/campusnotes/campusnotes/internal/identity/store"
)

type identitiesRepo struct {
	q querier
}

const identityColumns = `provider, provider_user_id, user_id, token, created_at, updated_at`

func (r *identitiesRepo) GetIdentity(
	ctx context.Context,
	provider, providerUserID string,
) (domain.LinkedIdentity, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM linked_identities
		 WHERE provider = ? AND provider_user_id = ?`,
		provider, providerUserID)
	return scanIdentity(row)
}

func (r *identitiesRepo) ListIdentitiesByUser(
	ctx context.Context,
	userID string,
) ([]domain.LinkedIdentity, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM linked_identities
		 WHERE user_id = ? ORDER BY provider`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LinkedIdentity
	for rows.Next() {
		li, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, li domain.LinkedIdentity) error {
	token, err := marshalToken(li.Token)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if li.CreatedAt.IsZero() {
		li.CreatedAt = now
	}
	if li.UpdatedAt.IsZero() {
		li.UpdatedAt = now
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO linked_identities (provider, provider_user_id, user_id, token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		li.Provider, li.ProviderUserID, li.UserID, token, li.CreatedAt, li.UpdatedAt)
	return mapConstraint(err)
}

func (r *identitiesRepo) UpdateToken(
	ctx context.Context,
	provider, providerUserID string,
	token domain.ProviderToken,
) error {
	raw, err := marshalToken(token)
	if err != nil {
		return err
	}

	res, err := r.q.ExecContext(ctx,
		`UPDATE linked_identities SET token = ?, updated_at = ?
		 WHERE provider = ? AND provider_user_id = ?`,
		raw, time.Now().UTC(), provider, providerUserID)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *identitiesRepo) CountIdentities(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM linked_identities`).Scan(&n)
	return n, err
}

func scanIdentity(row rowScanner) (domain.LinkedIdentity, error) {
	var li domain.LinkedIdentity
	var raw string
	err := row.Scan(&li.Provider, &li.ProviderUserID, &li.UserID, &raw, &li.CreatedAt, &li.UpdatedAt)
	if err != nil {
		return domain.LinkedIdentity{}, mapNotFound(err)
	}

	token, err := unmarshalToken(raw)
	if err != nil {
		return domain.LinkedIdentity{}, err
	}
	li.Token = token
	return li, nil
}

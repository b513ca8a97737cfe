package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/otoshop/otoshop/internal/auth/domain"
)

type profilesRepo struct {
	db  dbtx
	now func() time.Time
}

func (r *profilesRepo) Create(ctx context.Context, p domain.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, account_id, full_name, phone, address, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.AccountID,
		p.FullName,
		nullString(p.Phone),
		p.Address,
		p.AvatarURL,
		millis(p.CreatedAt),
		millis(p.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *profilesRepo) GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	var (
		p                domain.Profile
		phone            sql.NullString
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, full_name, phone, address, avatar_url, created_at, updated_at
		FROM profiles
		WHERE account_id = ?`, accountID,
	).Scan(&p.ID, &p.AccountID, &p.FullName, &phone, &p.Address, &p.AvatarURL, &created, &updated)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	p.Phone = phone.String
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

// DeleteByAccountID removes the profile if there is one.
func (r *profilesRepo) DeleteByAccountID(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE account_id = ?`, accountID)
	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/otoshop/otoshop/internal/auth/domain"
)

type accountsRepo struct {
	db  dbtx
	now func() time.Time
}

const accountColumns = `id, username, email, password_hash, role, status, created_at, updated_at`

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) FindByIdentifier(ctx context.Context, identifier string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = ?1 OR email = lower(?1)
		ORDER BY CASE WHEN username = ?1 THEN 0 ELSE 1 END
		LIMIT 1`, identifier)
	return scanAccount(row)
}

func (r *accountsRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = ?)`, username)
}

func (r *accountsRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = ?)`, strings.ToLower(email))
}

func (r *accountsRepo) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	a.ApplyDefaults()
	now := r.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		nullString(a.Username),
		nullString(strings.ToLower(a.Email)),
		a.PasswordHash,
		string(a.Role),
		string(a.Status),
		millis(a.CreatedAt),
		millis(a.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) Update(ctx context.Context, a domain.Account) error {
	a.ApplyDefaults()
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET username = ?, email = ?, role = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		nullString(a.Username),
		nullString(strings.ToLower(a.Email)),
		string(a.Role),
		string(a.Status),
		millis(r.now()),
		a.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return expectOne(res)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, millis(r.now()), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return mapConstraint(err)
	}
	return expectOne(res)
}

func (r *accountsRepo) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (domain.Account, error) {
	var (
		a                domain.Account
		username, email  sql.NullString
		role, status     string
		created, updated int64
	)
	err := s.Scan(&a.ID, &username, &email, &a.PasswordHash, &role, &status, &created, &updated)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.Username = username.String
	a.Email = email.String
	a.Role = domain.Role(role)
	a.Status = domain.Status(status)
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

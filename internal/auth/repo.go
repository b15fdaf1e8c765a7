package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Admin is one authorized dashboard operator. Admin records are seeded
// out-of-band and are read-only here.
type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, email, password_hash FROM admin WHERE email = $1;`,
		email,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrAdminNotFound
	}

	var admin Admin
	if err := rows.Scan(&admin.ID, &admin.Email, &admin.PasswordHash); err != nil {
		return nil, err
	}

	return &admin, nil
}

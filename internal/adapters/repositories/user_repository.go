package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"street-screens-service/internal/ports"
	"strings"
)

type SQLUserRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLUserRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLUserRepository {
	return &SQLUserRepository{DB: sqlDB, Dialect: dialect}
}

var _ ports.UserRepository = (*SQLUserRepository)(nil)

// Emails are stored lower-cased so the unique index is case-insensitive.
func (r *SQLUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	if r.DB == nil {
		return errors.New("create user: DB is nil")
	}

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	ts := now()
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
	INSERT INTO users (email, password_hash, first_name, last_name, type_user, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	RETURNING id;
	`), u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.TypeUser), ts).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: email taken: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create user: insert: %w", err)
	}

	u.CreatedAt = ts
	return nil
}

func (r *SQLUserRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if r.DB == nil {
		return nil, errors.New("get user: DB is nil")
	}
	return r.getOne(ctx, "id = ?", id)
}

func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.DB == nil {
		return nil, errors.New("get user by email: DB is nil")
	}
	return r.getOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *SQLUserRepository) getOne(ctx context.Context, cond string, arg any) (*domain.User, error) {
	query := r.Dialect.Rebind(`SELECT id, email, password_hash, first_name, last_name, type_user, created_at FROM users WHERE ` + cond + `;`)

	var u domain.User
	var typeUser string
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &typeUser, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: scan: %w", err)
	}

	u.TypeUser = domain.UserType(typeUser)
	return &u, nil
}

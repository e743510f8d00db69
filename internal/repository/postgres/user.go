package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/repository"
)

type userRepository struct {
	db querier
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u := &domain.User{}
	var role string
	query := `SELECT id, name, email, phone, role FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Reject(domain.ErrNotFound, domain.ReasonInvalidField, "user %s not found", id)
		}
		return nil, storeError("get user", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	query := `
		SELECT username, password_hash, full_name, email, role, department, is_active, created_at, version
		FROM users WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.Department, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.q.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByUsername(username string) (*domain.User, error) {
	query := `
		SELECT id, password_hash, full_name, email, role, department, is_active, created_at, version
		FROM users WHERE username = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	user := &domain.User{
		Username: username,
	}

	dst := []any{&user.ID, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.Department, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.q.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUsersByIDs resolves a cohort of users. Every id must exist; a missing id
// is reported so bulk operations can fail before any writes happen.
func (r *Repository) GetUsersByIDs(ids []int64) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, username, password_hash, full_name, email, role, department, is_active, created_at, version
		FROM users WHERE id IN (%s)
		ORDER BY id
	`, strings.Join(placeholders, ", "))

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]*domain.User, len(ids))
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.Department, &user.IsActive, &user.CreatedAt, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		found[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		user, exists := found[id]
		if !exists {
			return nil, fmt.Errorf("user %d does not exist", id)
		}
		users = append(users, user)
	}

	return users, nil
}

func (r *Repository) GetUsersByDepartment(department string) ([]*domain.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, department, is_active, created_at, version
		FROM users WHERE department = $1 AND is_active = true
		ORDER BY full_name
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.Department, &user.IsActive, &user.CreatedAt, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repository) UpdateUser(user *domain.User) error {
	query := `
		UPDATE users
		SET
			password_hash = $1,
			email = $2,
			role = $3,
			department = $4,
			is_active = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING username, full_name, created_at, version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	args := []any{user.PasswordHash, user.Email, user.Role, user.Department, user.IsActive, user.ID, user.Version}
	dst := []any{&user.Username, &user.FullName, &user.CreatedAt, &user.Version}
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllUsers() ([]*domain.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, department, is_active, created_at, version FROM users
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.Department, &user.IsActive, &user.CreatedAt, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repository) CheckEmailIfExists(email string) (bool, error) {
	exists := false

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`
	if err := r.q.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *Repository) DeleteUser(id int64) error {
	query := `
		DELETE FROM users WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	_, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateUser(user *domain.User) error {
	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, full_name, email, role, department)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, version
	`

	args := []any{user.Username, user.PasswordHash, user.FullName, user.Email, user.Role, user.Department}
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version); err != nil {
		return err
	}

	return nil
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

func (r *Repository) GetShiftByID(id int64) (*domain.Shift, error) {
	query := `
		SELECT name, shift_type, start_time, end_time, color, description, created_at, version
		FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	shift := &domain.Shift{
		ID: id,
	}

	dst := []any{&shift.Name, &shift.ShiftType, &shift.StartTime, &shift.EndTime, &shift.Color, &shift.Description, &shift.CreatedAt, &shift.Version}
	if err := r.q.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return shift, nil
}

func (r *Repository) GetShiftsByIDs(ids []int64) (map[int64]*domain.Shift, error) {
	shifts := make(map[int64]*domain.Shift, len(ids))
	if len(ids) == 0 {
		return shifts, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name, shift_type, start_time, end_time, color, description, created_at, version
		FROM shifts WHERE id IN (%s)
	`, strings.Join(placeholders, ", "))

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		shift := &domain.Shift{}
		dst := []any{&shift.ID, &shift.Name, &shift.ShiftType, &shift.StartTime, &shift.EndTime, &shift.Color, &shift.Description, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts[shift.ID] = shift
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

// ListShifts returns shifts ordered by start time, optionally narrowed by
// type and a case-insensitive name/description search.
func (r *Repository) ListShifts(shiftType, search string) ([]*domain.Shift, error) {
	query := `
		SELECT id, name, shift_type, start_time, end_time, color, description, created_at, version
		FROM shifts
		WHERE ($1 = '' OR shift_type = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY start_time
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, shiftType, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift := &domain.Shift{}
		dst := []any{&shift.ID, &shift.Name, &shift.ShiftType, &shift.StartTime, &shift.EndTime, &shift.Color, &shift.Description, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) CreateShift(shift *domain.Shift) error {
	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	query := `
		INSERT INTO shifts (name, shift_type, start_time, end_time, color, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	args := []any{shift.Name, shift.ShiftType, shift.StartTime, shift.EndTime, shift.Color, shift.Description}
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&shift.ID, &shift.CreatedAt, &shift.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateShift(shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			name = $1,
			shift_type = $2,
			start_time = $3,
			end_time = $4,
			color = $5,
			description = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	args := []any{shift.Name, shift.ShiftType, shift.StartTime, shift.EndTime, shift.Color, shift.Description, shift.ID, shift.Version}
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&shift.Version); err != nil {
		return err
	}

	return nil
}

// DeleteShift removes a shift. The schedule_events_shift_id_fkey constraint
// rejects deletion while any schedule event still references the shift.
func (r *Repository) DeleteShift(id int64) error {
	query := `
		DELETE FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	_, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) CheckShiftInUse(id int64) (bool, error) {
	inUse := false

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM schedule_events WHERE shift_id = $1)
	`
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&inUse); err != nil {
		return false, err
	}

	return inUse, nil
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

func (r *Repository) GetAllScheduleTemplates(department string, activeOnly bool) ([]*domain.ScheduleTemplate, error) {
	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	query := `
		SELECT
			st.id,
			st.name,
			st.description,
			st.department,
			st.is_active,
			st.created_at,
			st.version,
			td.id,
			td.day_of_week,
			td.shift_id,
			td.notes
		FROM schedule_templates st
		LEFT JOIN template_days td ON st.id = td.template_id
		WHERE ($1 = '' OR st.department = $1)
		  AND ($2 = false OR st.is_active = true)
		ORDER BY st.id, td.day_of_week
	`

	rows, err := r.q.QueryContext(ctx, query, department, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templatesMap := make(map[int64]*domain.ScheduleTemplate)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			ID          int64
			Name        string
			Description string
			Department  string
			IsActive    bool
			CreatedAt   time.Time
			Version     int32

			DayID     sql.NullInt64
			DayOfWeek sql.NullInt32
			ShiftID   sql.NullInt64
			Notes     sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Description,
			&row.Department,
			&row.IsActive,
			&row.CreatedAt,
			&row.Version,
			&row.DayID,
			&row.DayOfWeek,
			&row.ShiftID,
			&row.Notes,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		template, exists := templatesMap[row.ID]
		if !exists {
			template = &domain.ScheduleTemplate{
				ID:          row.ID,
				Name:        row.Name,
				Description: row.Description,
				Department:  row.Department,
				IsActive:    row.IsActive,
				Days:        make([]domain.TemplateDay, 0),
				CreatedAt:   row.CreatedAt,
				Version:     row.Version,
			}
			templatesMap[row.ID] = template
			order = append(order, row.ID)
		}

		// A template with no day rows yet still lists, with empty Days.
		if !row.DayID.Valid {
			continue
		}

		day := domain.TemplateDay{
			ID:        row.DayID.Int64,
			DayOfWeek: row.DayOfWeek.Int32,
			Notes:     row.Notes.String,
		}
		if row.ShiftID.Valid {
			day.ShiftID = &row.ShiftID.Int64
		}
		template.Days = append(template.Days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	templates := make([]*domain.ScheduleTemplate, 0, len(order))
	for _, id := range order {
		templates = append(templates, templatesMap[id])
	}

	return templates, nil
}

func (r *Repository) GetScheduleTemplate(id int64) (*domain.ScheduleTemplate, error) {
	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	query := `
		SELECT
			st.name,
			st.description,
			st.department,
			st.is_active,
			st.created_at,
			st.version,
			td.id,
			td.day_of_week,
			td.shift_id,
			td.notes
		FROM schedule_templates st
		LEFT JOIN template_days td ON st.id = td.template_id
		WHERE st.id = $1
		ORDER BY td.day_of_week
	`

	rows, err := r.q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	template := &domain.ScheduleTemplate{
		ID:   id,
		Days: make([]domain.TemplateDay, 0),
	}
	found := false

	for rows.Next() {
		var row struct {
			Name        string
			Description string
			Department  string
			IsActive    bool
			CreatedAt   time.Time
			Version     int32

			DayID     sql.NullInt64
			DayOfWeek sql.NullInt32
			ShiftID   sql.NullInt64
			Notes     sql.NullString
		}

		dst := []any{
			&row.Name,
			&row.Description,
			&row.Department,
			&row.IsActive,
			&row.CreatedAt,
			&row.Version,
			&row.DayID,
			&row.DayOfWeek,
			&row.ShiftID,
			&row.Notes,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			template.Name = row.Name
			template.Description = row.Description
			template.Department = row.Department
			template.IsActive = row.IsActive
			template.CreatedAt = row.CreatedAt
			template.Version = row.Version
			found = true
		}

		if !row.DayID.Valid {
			continue
		}

		day := domain.TemplateDay{
			ID:        row.DayID.Int64,
			DayOfWeek: row.DayOfWeek.Int32,
			Notes:     row.Notes.String,
		}
		if row.ShiftID.Valid {
			day.ShiftID = &row.ShiftID.Int64
		}
		template.Days = append(template.Days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	return template, nil
}

func (r *Repository) CreateScheduleTemplate(template *domain.ScheduleTemplate) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO schedule_templates (name, description, department, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	params := []any{template.Name, template.Description, template.Department, template.IsActive}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&template.ID, &template.CreatedAt, &template.Version); err != nil {
		return err
	}

	for i := range template.Days {
		query = `
			INSERT INTO template_days (template_id, day_of_week, shift_id, notes)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		params = []any{template.ID, template.Days[i].DayOfWeek, template.Days[i].ShiftID, template.Days[i].Notes}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&template.Days[i].ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateScheduleTemplate rewrites the template and, when Days is non-nil,
// replaces the whole day set in the same transaction.
func (r *Repository) UpdateScheduleTemplate(template *domain.ScheduleTemplate, replaceDays bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE schedule_templates
		SET
			name = $1,
			description = $2,
			department = $3,
			is_active = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`
	params := []any{template.Name, template.Description, template.Department, template.IsActive, template.ID, template.Version}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&template.Version); err != nil {
		return err
	}

	if replaceDays {
		query = `
			DELETE FROM template_days WHERE template_id = $1
		`
		if _, err := tx.ExecContext(ctx, query, template.ID); err != nil {
			return err
		}

		for i := range template.Days {
			query = `
				INSERT INTO template_days (template_id, day_of_week, shift_id, notes)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`
			params = []any{template.ID, template.Days[i].DayOfWeek, template.Days[i].ShiftID, template.Days[i].Notes}
			if err := tx.QueryRowContext(ctx, query, params...).Scan(&template.Days[i].ID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteScheduleTemplate(id int64) error {
	query := `
		DELETE FROM schedule_templates WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	_, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

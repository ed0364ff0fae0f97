package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

const scheduleEventColumns = `
	id, user_id, title, event_type, description,
	start_date, end_date, start_time, end_time, all_day,
	shift_id, status, location, color, patient_id,
	department, created_by, created_at, updated_at, version
`

type rowScanner interface {
	Scan(dst ...any) error
}

func scanScheduleEvent(row rowScanner) (*domain.ScheduleEvent, error) {
	event := &domain.ScheduleEvent{}
	var shiftID, patientID, createdBy sql.NullInt64

	dst := []any{
		&event.ID, &event.UserID, &event.Title, &event.EventType, &event.Description,
		&event.StartDate, &event.EndDate, &event.StartTime, &event.EndTime, &event.AllDay,
		&shiftID, &event.Status, &event.Location, &event.Color, &patientID,
		&event.Department, &createdBy, &event.CreatedAt, &event.UpdatedAt, &event.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if shiftID.Valid {
		event.ShiftID = &shiftID.Int64
	}
	if patientID.Valid {
		event.PatientID = &patientID.Int64
	}
	if createdBy.Valid {
		event.CreatedBy = &createdBy.Int64
	}

	return event, nil
}

func (r *Repository) GetScheduleEventByID(ctx context.Context, id int64) (*domain.ScheduleEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_events WHERE id = $1`, scheduleEventColumns)

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return scanScheduleEvent(r.q.QueryRowContext(ctx, query, id))
}

// ListActiveUserScheduleEvents returns the user's events that participate in
// conflict detection (status scheduled or confirmed).
func (r *Repository) ListActiveUserScheduleEvents(ctx context.Context, userID int64) ([]*domain.ScheduleEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schedule_events
		WHERE user_id = $1 AND status IN ('scheduled', 'confirmed')
		ORDER BY start_date, start_time
	`, scheduleEventColumns)

	return r.queryScheduleEvents(ctx, query, userID)
}

// LockUserScheduleEvents serializes concurrent check-then-insert sequences
// for the same user with a transaction-scoped advisory lock keyed by user id,
// then returns the user's active events. Row locks alone cannot do this: with
// an empty calendar there is no row to lock, and under read committed a
// blocked statement's snapshot misses the winner's uncommitted insert. The
// lock is released automatically at commit or rollback.
func (r *Repository) LockUserScheduleEvents(ctx context.Context, userID int64) ([]*domain.ScheduleEvent, error) {
	lockCtx, cancel := r.queryCtx(ctx)
	defer cancel()

	if _, err := r.q.ExecContext(lockCtx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return nil, err
	}

	return r.ListActiveUserScheduleEvents(ctx, userID)
}

func (r *Repository) InsertScheduleEvent(ctx context.Context, event *domain.ScheduleEvent) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO schedule_events (
			user_id, title, event_type, description,
			start_date, end_date, start_time, end_time, all_day,
			shift_id, status, location, color, patient_id, department, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at, version
	`

	args := []any{
		event.UserID, event.Title, event.EventType, event.Description,
		event.StartDate, event.EndDate, nullableTime(event.StartTime), nullableTime(event.EndTime), event.AllDay,
		event.ShiftID, event.Status, event.Location, event.Color, event.PatientID, event.Department, event.CreatedBy,
	}
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt, &event.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateScheduleEvent(ctx context.Context, event *domain.ScheduleEvent) error {
	query := `
		UPDATE schedule_events
		SET
			user_id = $1,
			title = $2,
			event_type = $3,
			description = $4,
			start_date = $5,
			end_date = $6,
			start_time = $7,
			end_time = $8,
			all_day = $9,
			shift_id = $10,
			status = $11,
			location = $12,
			color = $13,
			patient_id = $14,
			department = $15,
			updated_at = now(),
			version = version + 1
		WHERE id = $16 AND version = $17
		RETURNING updated_at, version
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{
		event.UserID, event.Title, event.EventType, event.Description,
		event.StartDate, event.EndDate, nullableTime(event.StartTime), nullableTime(event.EndTime), event.AllDay,
		event.ShiftID, event.Status, event.Location, event.Color, event.PatientID, event.Department,
		event.ID, event.Version,
	}
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&event.UpdatedAt, &event.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteScheduleEvent(ctx context.Context, id int64) error {
	query := `
		DELETE FROM schedule_events WHERE id = $1
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

// ScheduleEventFilter narrows ListScheduleEvents. Date bounds select events
// whose range touches the window (end_date >= StartDate, start_date <=
// EndDate), matching the overlap predicate used everywhere else.
type ScheduleEventFilter struct {
	UserID     *int64
	StartDate  *time.Time
	EndDate    *time.Time
	EventType  string
	Department string
	Status     string
	ActiveOnly bool
}

func (f *ScheduleEventFilter) conditions() (string, []any) {
	conds := make([]string, 0)
	args := make([]any, 0)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != nil {
		conds = append(conds, "user_id = "+arg(*f.UserID))
	}
	if f.StartDate != nil {
		conds = append(conds, "end_date >= "+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "start_date <= "+arg(*f.EndDate))
	}
	if f.EventType != "" {
		conds = append(conds, "event_type = "+arg(f.EventType))
	}
	if f.Department != "" {
		conds = append(conds, "department = "+arg(f.Department))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.ActiveOnly {
		conds = append(conds, "status IN ('scheduled', 'confirmed')")
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// ListScheduleEvents returns one page of matching events plus the total
// match count.
func (r *Repository) ListScheduleEvents(filter ScheduleEventFilter, page, pageSize int) ([]*domain.ScheduleEvent, int64, error) {
	where, args := filter.conditions()

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM schedule_events %s`, where)
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM schedule_events
		%s
		ORDER BY start_date, start_time
		LIMIT $%d OFFSET $%d
	`, scheduleEventColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	events, err := r.queryScheduleEvents(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// ListUserEventsInRange returns the user's active events overlapping the
// inclusive date window, ordered for calendar rendering.
func (r *Repository) ListUserEventsInRange(userID int64, startDate, endDate time.Time) ([]*domain.ScheduleEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schedule_events
		WHERE user_id = $1
		  AND start_date <= $3 AND end_date >= $2
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY start_date, start_time
	`, scheduleEventColumns)

	return r.queryScheduleEvents(context.Background(), query, userID, startDate, endDate)
}

// ListDepartmentEventsInRange returns active events in the window for every
// active user of the department.
func (r *Repository) ListDepartmentEventsInRange(department string, startDate, endDate time.Time) ([]*domain.ScheduleEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schedule_events
		WHERE user_id IN (SELECT id FROM users WHERE department = $1 AND is_active = true)
		  AND start_date <= $3 AND end_date >= $2
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY start_date, start_time
	`, scheduleEventColumns)

	return r.queryScheduleEvents(context.Background(), query, department, startDate, endDate)
}

// ListUserUpcomingShifts returns up to limit active shift events ending on
// or after today.
func (r *Repository) ListUserUpcomingShifts(userID int64, today time.Time, limit int) ([]*domain.ScheduleEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schedule_events
		WHERE user_id = $1
		  AND end_date >= $2
		  AND event_type = 'shift'
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY start_date, start_time
		LIMIT $3
	`, scheduleEventColumns)

	return r.queryScheduleEvents(context.Background(), query, userID, today, limit)
}

func (r *Repository) GetScheduleStatistics(today time.Time) (*domain.ScheduleStatistics, error) {
	stats := &domain.ScheduleStatistics{
		EventsByType:    make([]domain.EventTypeCount, 0),
		EventsByStatus:  make([]domain.EventStatusCount, 0),
		BusiestUsers:    make([]domain.UserEventCount, 0),
		DepartmentStats: make([]domain.DepartmentEventStats, 0),
	}

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE event_type = 'shift'),
			COUNT(*) FILTER (WHERE end_date >= $1)
		FROM schedule_events
	`
	if err := r.q.QueryRowContext(ctx, query, today).Scan(&stats.TotalEvents, &stats.TotalShifts, &stats.UpcomingEvents); err != nil {
		return nil, err
	}

	query = `
		SELECT event_type, COUNT(*) FROM schedule_events
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c := domain.EventTypeCount{}
		if err := rows.Scan(&c.EventType, &c.Count); err != nil {
			return nil, err
		}
		stats.EventsByType = append(stats.EventsByType, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = `
		SELECT status, COUNT(*) FROM schedule_events
		GROUP BY status ORDER BY COUNT(*) DESC
	`
	rows, err = r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c := domain.EventStatusCount{}
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		stats.EventsByStatus = append(stats.EventsByStatus, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = `
		SELECT u.id, u.full_name, COUNT(se.id)
		FROM users u
		JOIN schedule_events se ON se.user_id = u.id
		GROUP BY u.id, u.full_name
		ORDER BY COUNT(se.id) DESC
		LIMIT 10
	`
	rows, err = r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c := domain.UserEventCount{}
		if err := rows.Scan(&c.UserID, &c.FullName, &c.Count); err != nil {
			return nil, err
		}
		stats.BusiestUsers = append(stats.BusiestUsers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = `
		SELECT department, COUNT(*), COUNT(DISTINCT user_id)
		FROM schedule_events
		WHERE department <> ''
		GROUP BY department
		ORDER BY COUNT(*) DESC
		LIMIT 10
	`
	rows, err = r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c := domain.DepartmentEventStats{}
		if err := rows.Scan(&c.Department, &c.EventCount, &c.UserCount); err != nil {
			return nil, err
		}
		stats.DepartmentStats = append(stats.DepartmentStats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *Repository) queryScheduleEvents(ctx context.Context, query string, args ...any) ([]*domain.ScheduleEvent, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.ScheduleEvent, 0)
	for rows.Next() {
		event, err := scanScheduleEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// nullableTime maps an empty time-of-day string to NULL-safe midnight so
// all-day events insert cleanly.
func nullableTime(clock string) string {
	if clock == "" {
		return "00:00:00"
	}
	return clock
}

package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store. LockUserScheduleEvents takes a per-user
// lock that InTransaction releases when the callback returns, mirroring a
// transaction-scoped advisory lock.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*domain.ScheduleEvent
	locks  sync.Map
}

func newMemStore() *memStore {
	return &memStore{events: make(map[int64]*domain.ScheduleEvent)}
}

func (m *memStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	tx := &memTx{memStore: m}
	defer tx.releaseLocks()
	return fn(tx)
}

type memTx struct {
	*memStore
	held []*sync.Mutex
}

func (t *memTx) LockUserScheduleEvents(ctx context.Context, userID int64) ([]*domain.ScheduleEvent, error) {
	lock, _ := t.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	t.held = append(t.held, mu)

	return t.ListActiveUserScheduleEvents(ctx, userID)
}

func (t *memTx) releaseLocks() {
	for _, mu := range t.held {
		mu.Unlock()
	}
	t.held = nil
}

func (m *memStore) GetScheduleEventByID(ctx context.Context, id int64) (*domain.ScheduleEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *event
	return &cp, nil
}

func (m *memStore) ListActiveUserScheduleEvents(ctx context.Context, userID int64) ([]*domain.ScheduleEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.ScheduleEvent, 0)
	for _, event := range m.events {
		if event.UserID == userID && event.Status.IsActive() {
			cp := *event
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *memStore) LockUserScheduleEvents(ctx context.Context, userID int64) ([]*domain.ScheduleEvent, error) {
	return m.ListActiveUserScheduleEvents(ctx, userID)
}

func (m *memStore) InsertScheduleEvent(ctx context.Context, event *domain.ScheduleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	event.ID = m.nextID
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	event.Version = 1

	cp := *event
	m.events[event.ID] = &cp
	return nil
}

func (m *memStore) UpdateScheduleEvent(ctx context.Context, event *domain.ScheduleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[event.ID]; !ok {
		return sql.ErrNoRows
	}

	event.UpdatedAt = time.Now()
	event.Version++
	cp := *event
	m.events[event.ID] = &cp
	return nil
}

func (m *memStore) DeleteScheduleEvent(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.events, id)
	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var (
	admin = Actor{UserID: 1, IsAdmin: true}
	staff = Actor{UserID: 2, IsAdmin: false}
)

func newCommand(userID int64, startDate, endDate time.Time) CreateEventCommand {
	return CreateEventCommand{
		UserID:    userID,
		Title:     "Morning - Jane Doe",
		EventType: domain.EventTypeShift,
		StartDate: startDate,
		EndDate:   endDate,
		StartTime: "08:00:00",
		EndTime:   "16:00:00",
	}
}

func TestCreateEvent(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	assert.NotZero(t, event.ID)
	assert.Equal(t, domain.EventStatusScheduled, event.Status)
	require.NotNil(t, event.CreatedBy)
	assert.Equal(t, admin.UserID, *event.CreatedBy)
}

func TestCreateEventRejectsOverlap(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 6)), admin)
	require.NoError(t, err)

	_, err = s.CreateEvent(ctx, newCommand(2, date(2024, 3, 6), date(2024, 3, 8)), admin)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Len(t, conflictErr.Conflicts, 1)
}

func TestCreateEventOtherUserUnaffected(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 6)), admin)
	require.NoError(t, err)

	_, err = s.CreateEvent(ctx, newCommand(3, date(2024, 3, 4), date(2024, 3, 6)), admin)
	require.NoError(t, err)
}

func TestCreateEventPermission(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, newCommand(3, date(2024, 3, 4), date(2024, 3, 4)), staff)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// booking yourself is fine
	_, err = s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), staff)
	assert.NoError(t, err)
}

func TestConcurrentCreateEventSameUser(t *testing.T) {
	store := newMemStore()
	s := New(store, StrictnessDate)
	ctx := context.Background()

	start := make(chan struct{})
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := s.CreateEvent(ctx, newCommand(7, date(2024, 3, 4), date(2024, 3, 4)), admin)
			results <- err
		}()
	}
	close(start)

	var created, conflicted int
	for i := 0; i < 2; i++ {
		err := <-results
		var conflictErr *ConflictError
		switch {
		case err == nil:
			created++
		case errors.As(err, &conflictErr):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// exactly one booking wins, the loser sees the winner's event
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, conflicted)

	active, err := store.ListActiveUserScheduleEvents(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCreateEventInvalidRange(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 5), date(2024, 3, 4)), admin)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestCreateEventRejectsMalformedTimes(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	cmd := newCommand(2, date(2024, 3, 4), date(2024, 3, 4))
	cmd.StartTime = "8am"
	_, err := s.CreateEvent(ctx, cmd, admin)
	assert.ErrorIs(t, err, ErrInvalidClock)

	cmd = newCommand(2, date(2024, 3, 4), date(2024, 3, 4))
	cmd.EndTime = "25:00:00"
	_, err = s.CreateEvent(ctx, cmd, admin)
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestUpdateEventRejectsMalformedTimes(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	bad := "noonish"
	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{EndTime: &bad}, admin)
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestUpdateEventSameDatesDoesNotConflictWithItself(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	title := "updated title"
	updated, err := s.UpdateEvent(ctx, event.ID, EventPatch{Title: &title, StartDate: &event.StartDate, EndDate: &event.EndDate}, admin)
	require.NoError(t, err)
	assert.Equal(t, "updated title", updated.Title)
}

func TestUpdateEventMoveIntoOccupiedRange(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 6), date(2024, 3, 6)), admin)
	require.NoError(t, err)

	moveTo := date(2024, 3, 4)
	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{StartDate: &moveTo, EndDate: &moveTo}, admin)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// nothing was persisted
	current, err := s.store.GetScheduleEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, current.StartDate.Equal(date(2024, 3, 6)))
}

func TestUpdateEventStatusTransitions(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	completed := domain.EventStatusCompleted
	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{Status: &completed}, admin)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, domain.EventStatusScheduled, transitionErr.From)

	confirmed := domain.EventStatusConfirmed
	updated, err := s.UpdateEvent(ctx, event.ID, EventPatch{Status: &confirmed}, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusConfirmed, updated.Status)

	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{Status: &completed}, admin)
	require.NoError(t, err)
}

func TestUpdateEventSameStatusIsNoop(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	scheduled := domain.EventStatusScheduled
	updated, err := s.UpdateEvent(ctx, event.ID, EventPatch{Status: &scheduled}, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusScheduled, updated.Status)
}

func TestCancelledEventFreesTheSlot(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	cancelled := domain.EventStatusCancelled
	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{Status: &cancelled}, admin)
	require.NoError(t, err)

	_, err = s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	assert.NoError(t, err)
}

func TestUpdateEventPermission(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(3, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	title := "not yours"
	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{Title: &title}, staff)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateEventNotFound(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	title := "missing"
	_, err := s.UpdateEvent(ctx, 42, EventPatch{Title: &title}, admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEvent(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	require.NoError(t, s.DeleteEvent(ctx, event.ID, staff))

	err = s.DeleteEvent(ctx, event.ID, staff)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEventPermission(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(3, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	err = s.DeleteEvent(ctx, event.ID, staff)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFindConflicts(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	event, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 6)), admin)
	require.NoError(t, err)

	conflicts, err := s.FindConflicts(ctx, 2, date(2024, 3, 6), date(2024, 3, 8), 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, event.ID, conflicts[0].ID)

	// excluding the event itself reports availability
	hasConflict, err := s.HasConflict(ctx, 2, date(2024, 3, 6), date(2024, 3, 8), event.ID)
	require.NoError(t, err)
	assert.False(t, hasConflict)

	hasConflict, err = s.HasConflict(ctx, 2, date(2024, 3, 7), date(2024, 3, 8), 0)
	require.NoError(t, err)
	assert.False(t, hasConflict)
}

func TestUpdateEventPatientReference(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	patientID := int64(12)
	cmd := newCommand(2, date(2024, 3, 4), date(2024, 3, 4))
	cmd.PatientID = &patientID
	event, err := s.CreateEvent(ctx, cmd, admin)
	require.NoError(t, err)

	newPatient := int64(34)
	updated, err := s.UpdateEvent(ctx, event.ID, EventPatch{PatientID: &newPatient}, admin)
	require.NoError(t, err)
	require.NotNil(t, updated.PatientID)
	assert.Equal(t, int64(34), *updated.PatientID)
}

func TestDateTimeStrictnessRevalidatesTimePatches(t *testing.T) {
	s := New(newMemStore(), StrictnessDateTime)
	ctx := context.Background()

	// 08:00-16:00 on the 4th
	_, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	evening := newCommand(2, date(2024, 3, 4), date(2024, 3, 4))
	evening.StartTime = "17:00:00"
	evening.EndTime = "23:00:00"
	event, err := s.CreateEvent(ctx, evening, admin)
	require.NoError(t, err)

	// shifting only the start time into the morning booking must be caught
	overlapStart := "15:00:00"
	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{StartTime: &overlapStart}, admin)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// moving within the free evening still works
	laterStart := "18:00:00"
	updated, err := s.UpdateEvent(ctx, event.ID, EventPatch{StartTime: &laterStart}, admin)
	require.NoError(t, err)
	assert.Equal(t, "18:00:00", updated.StartTime)
}

func TestDateTimeStrictnessAllowsDisjointTimes(t *testing.T) {
	s := New(newMemStore(), StrictnessDateTime)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, newCommand(2, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	evening := newCommand(2, date(2024, 3, 4), date(2024, 3, 4))
	evening.StartTime = "16:00:00"
	evening.EndTime = "23:00:00"
	_, err = s.CreateEvent(ctx, evening, admin)
	assert.NoError(t, err)

	overlapping := newCommand(2, date(2024, 3, 4), date(2024, 3, 4))
	overlapping.StartTime = "15:00:00"
	overlapping.EndTime = "17:00:00"
	_, err = s.CreateEvent(ctx, overlapping, admin)
	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"room-turnover-backend/internal/model"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newSQLiteStore creates a store over a private in-memory database with a
// single connection, so transactions serialize the way row locks would.
func newSQLiteStore(t *testing.T, clock *fakeClock) (Store, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(
		&model.Operator{},
		&model.Room{},
		&model.Turnover{},
		&model.TurnoverEvent{},
		&model.PushSubscription{},
	))

	require.NoError(t, gormDB.Create(&model.Operator{ID: 1, Name: "Administrador", Email: "admin@hospital.com", PasswordHash: "x", Role: model.RoleAdmin}).Error)
	rooms := []model.Room{
		{ID: 1, Label: "Sala 01", Status: model.RoomFree, LastUpdated: clock.Now()},
		{ID: 2, Label: "Sala 02", Status: model.RoomFree, LastUpdated: clock.Now()},
		{ID: 10, Label: "Sala 10", Status: model.RoomFree, LastUpdated: clock.Now()},
		{ID: 9, Label: "Sala 9", Status: model.RoomFree, LastUpdated: clock.Now()},
	}
	require.NoError(t, gormDB.Create(&rooms).Error)

	return NewGormStore(gormDB, WithClock(clock.Now)), gormDB
}

// assertRoomInvariant checks that a room is in_turnover exactly when one turnover is in progress.
func assertRoomInvariant(t *testing.T, gormDB *gorm.DB, roomID int64) {
	t.Helper()
	var room model.Room
	require.NoError(t, gormDB.First(&room, roomID).Error)
	var active int64
	require.NoError(t, gormDB.Model(&model.Turnover{}).
		Where("room_id = ? AND status = ?", roomID, model.TurnoverInProgress).
		Count(&active).Error)
	assert.LessOrEqual(t, active, int64(1))
	assert.Equal(t, room.Status == model.RoomInTurnover, active == 1, "room %d status %q with %d active turnovers", roomID, room.Status, active)
}

func TestGormStore_FullLifecycle(t *testing.T) {
	clock := newFakeClock()
	s, gormDB := newSQLiteStore(t, clock)
	ctx := context.Background()

	started, err := s.StartTurnover(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StageTeardown, started.Stage)
	assert.Equal(t, model.TurnoverInProgress, started.Status)
	assert.Nil(t, started.CompletedAt)
	assert.Nil(t, started.TotalDuration)
	assertRoomInvariant(t, gormDB, 1)

	room, err := s.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoomInTurnover, room.Status)

	steps := []struct {
		from    model.Stage
		to      model.Stage
		elapsed time.Duration
	}{
		{model.StageTeardown, model.StageCleaning, 5 * time.Minute},
		{model.StageCleaning, model.StageSetup, 20 * time.Minute},
		{model.StageSetup, model.StageChecklist, 10 * time.Minute},
		{model.StageChecklist, model.StageRelease, 3 * time.Minute},
		{model.StageRelease, model.StageCompleted, 2 * time.Minute},
	}

	var last AdvanceResult
	for _, step := range steps {
		clock.Advance(step.elapsed)
		last, err = s.AdvanceStage(ctx, 1, 1, step.from)
		require.NoError(t, err, "advance from %s", step.from)
		assert.Equal(t, step.to, last.Turnover.Stage)
		assert.Equal(t, step.from, last.From)
		assert.InDelta(t, step.elapsed.Seconds(), last.Elapsed, 0.001)
		assertRoomInvariant(t, gormDB, 1)
	}

	require.True(t, last.Completed())
	done := last.Turnover
	assert.Equal(t, model.TurnoverCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.False(t, done.CompletedAt.Before(done.StartedAt))
	require.NotNil(t, done.TotalDuration)
	assert.InDelta(t, done.CompletedAt.Sub(done.StartedAt).Seconds(), *done.TotalDuration, 0.001)
	assert.InDelta(t, (40 * time.Minute).Seconds(), *done.TotalDuration, 0.001)
	require.NotNil(t, done.TeardownDuration)
	require.NotNil(t, done.CleaningDuration)
	require.NotNil(t, done.SetupDuration)
	assert.InDelta(t, 300.0, *done.TeardownDuration, 0.001)
	assert.InDelta(t, 1200.0, *done.CleaningDuration, 0.001)
	assert.InDelta(t, 600.0, *done.SetupDuration, 0.001)
	assert.Nil(t, done.ActiveRoomID)

	room, err = s.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoomFree, room.Status)

	events, err := s.TurnoverEvents(ctx, done.ID)
	require.NoError(t, err)
	require.Len(t, events, len(steps))
	observed := []model.Stage{events[0].FromStage}
	for _, e := range events {
		observed = append(observed, e.ToStage)
	}
	assert.Equal(t, model.Stages, observed)

	// A freed room accepts a new turnover.
	again, err := s.StartTurnover(ctx, 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, done.ID, again.ID)
	assertRoomInvariant(t, gormDB, 1)
}

func TestGormStore_StartTurnoverConflicts(t *testing.T) {
	clock := newFakeClock()
	s, gormDB := newSQLiteStore(t, clock)
	ctx := context.Background()

	first, err := s.StartTurnover(ctx, 2, 1)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = s.StartTurnover(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrConflict)

	var turnovers []model.Turnover
	require.NoError(t, gormDB.Where("room_id = ?", 2).Find(&turnovers).Error)
	require.Len(t, turnovers, 1)
	assert.Equal(t, first.ID, turnovers[0].ID)
	assert.Equal(t, model.StageTeardown, turnovers[0].Stage)
	assert.True(t, first.StartedAt.Equal(turnovers[0].StartedAt))
	assertRoomInvariant(t, gormDB, 2)
}

func TestGormStore_StartTurnoverUnknownRoom(t *testing.T) {
	s, _ := newSQLiteStore(t, newFakeClock())
	_, err := s.StartTurnover(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_ConcurrentStartExactlyOneWins(t *testing.T) {
	s, gormDB := newSQLiteStore(t, newFakeClock())

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.StartTurnover(context.Background(), 2, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrConflict):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicted)
	assertRoomInvariant(t, gormDB, 2)
}

func TestGormStore_AdvanceStageErrors(t *testing.T) {
	testCases := []struct {
		name     string
		roomID   int64
		start    bool
		expected model.Stage
		wantErr  error
	}{
		{name: "completed has no successor", roomID: 1, start: true, expected: model.StageCompleted, wantErr: ErrInvalidStage},
		{name: "unknown stage", roomID: 1, start: true, expected: model.Stage("polishing"), wantErr: ErrInvalidStage},
		{name: "unknown room", roomID: 404, expected: model.StageTeardown, wantErr: ErrNotFound},
		{name: "no active turnover", roomID: 1, expected: model.StageTeardown, wantErr: ErrConflict},
		{name: "stale expected stage", roomID: 1, start: true, expected: model.StageCleaning, wantErr: ErrStageMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			s, gormDB := newSQLiteStore(t, clock)
			ctx := context.Background()

			if tc.start {
				_, err := s.StartTurnover(ctx, tc.roomID, 1)
				require.NoError(t, err)
			}
			var before []model.Turnover
			require.NoError(t, gormDB.Order("id").Find(&before).Error)

			clock.Advance(time.Minute)
			_, err := s.AdvanceStage(ctx, tc.roomID, 1, tc.expected)
			assert.ErrorIs(t, err, tc.wantErr)

			var after []model.Turnover
			require.NoError(t, gormDB.Order("id").Find(&after).Error)
			assert.Equal(t, before, after, "failed advance must not mutate turnovers")

			var events int64
			gormDB.Model(&model.TurnoverEvent{}).Count(&events)
			assert.Equal(t, int64(0), events)
		})
	}
}

func TestGormStore_StaleAdvanceAfterRace(t *testing.T) {
	clock := newFakeClock()
	s, _ := newSQLiteStore(t, clock)
	ctx := context.Background()

	_, err := s.StartTurnover(ctx, 1, 1)
	require.NoError(t, err)

	// Two operators both saw "teardown"; the second one is stale.
	_, err = s.AdvanceStage(ctx, 1, 1, model.StageTeardown)
	require.NoError(t, err)
	_, err = s.AdvanceStage(ctx, 1, 1, model.StageTeardown)
	assert.ErrorIs(t, err, ErrStageMismatch)

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	require.NotNil(t, rooms[0].Turnover)
	assert.Equal(t, model.StageCleaning, rooms[0].Turnover.Stage)
}

func TestGormStore_ListRooms(t *testing.T) {
	clock := newFakeClock()
	s, _ := newSQLiteStore(t, clock)
	ctx := context.Background()

	_, err := s.StartTurnover(ctx, 2, 1)
	require.NoError(t, err)
	clock.Advance(90 * time.Second)
	_, err = s.AdvanceStage(ctx, 2, 1, model.StageTeardown)
	require.NoError(t, err)

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)

	labels := make([]string, len(rooms))
	for i, r := range rooms {
		labels[i] = r.Label
	}
	assert.Equal(t, []string{"Sala 01", "Sala 02", "Sala 9", "Sala 10"}, labels)

	assert.Nil(t, rooms[0].Turnover)
	require.NotNil(t, rooms[1].Turnover)
	assert.Equal(t, model.RoomInTurnover, rooms[1].Status)
	assert.Equal(t, model.StageCleaning, rooms[1].Turnover.Stage)
	require.NotNil(t, rooms[1].Turnover.Durations.Teardown)
	assert.InDelta(t, 90.0, *rooms[1].Turnover.Durations.Teardown, 0.001)
	assert.Nil(t, rooms[1].Turnover.Durations.Total)
}

func TestGormStore_MarkOccupied(t *testing.T) {
	clock := newFakeClock()
	s, gormDB := newSQLiteStore(t, clock)
	ctx := context.Background()

	clock.Advance(time.Minute)
	room, err := s.MarkOccupied(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoomOccupied, room.Status)
	firstUpdate := room.LastUpdated

	clock.Advance(time.Minute)
	room, err = s.MarkOccupied(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoomOccupied, room.Status)
	assert.True(t, room.LastUpdated.After(firstUpdate), "re-marking refreshes the timestamp")

	_, err = s.MarkOccupied(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	// An occupied room can start a turnover, and then cannot be re-occupied.
	_, err = s.StartTurnover(ctx, 1, 1)
	require.NoError(t, err)
	_, err = s.MarkOccupied(ctx, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assertRoomInvariant(t, gormDB, 1)
}

func TestGormStore_FindOperatorByEmail(t *testing.T) {
	s, _ := newSQLiteStore(t, newFakeClock())
	ctx := context.Background()

	op, err := s.FindOperatorByEmail(ctx, " Admin@Hospital.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), op.ID)

	_, err = s.FindOperatorByEmail(ctx, "ghost@hospital.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_Subscriptions(t *testing.T) {
	s, _ := newSQLiteStore(t, newFakeClock())
	ctx := context.Background()

	sub := model.PushSubscription{Endpoint: "https://push.example.com/a", P256DH: "key", Auth: "auth"}
	require.NoError(t, s.SaveSubscription(ctx, sub, []int64{1, 2}))

	ids, err := s.SubscriptionRoomIDs(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	require.NoError(t, s.SaveSubscription(ctx, sub, []int64{10}))
	ids, err = s.SubscriptionRoomIDs(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids)

	subs, err := s.SubscriptionsForRoom(ctx, 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.Endpoint, subs[0].Endpoint)

	subs, err = s.SubscriptionsForRoom(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, s.DeleteSubscription(ctx, sub.Endpoint))
	_, err = s.SubscriptionRoomIDs(ctx, sub.Endpoint)
	assert.ErrorIs(t, err, ErrNotFound)
}

// newMockDB creates a gorm handle over sqlmock using the postgres dialect.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_StartTurnoverRollsBackOnStorageFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, WithClock(newFakeClock().Now))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "rooms"`)).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "status", "last_updated"}).
			AddRow(7, "Sala 07", "free", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "turnovers"`)).
		WithArgs(7, "in_progress").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "rooms" SET`)).
		WithArgs(Any{}, Any{}, 7, "in_turnover").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "turnovers"`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.StartTurnover(context.Background(), 7, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_AdvanceStageRollsBackWhenRoomReleaseFails(t *testing.T) {
	gormDB, mock := newMockDB(t)
	clock := newFakeClock()
	s := NewGormStore(gormDB, WithClock(clock.Now))
	started := clock.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "rooms"`)).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "status", "last_updated"}).
			AddRow(3, "Sala 03", "in_turnover", started))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "turnovers"`)).
		WithArgs(3, "in_progress", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "operator_id", "stage", "status", "started_at", "stage_started_at"}).
			AddRow(11, 3, 1, "release", "in_progress", started, started.Add(50*time.Minute)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "turnovers" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "rooms" SET`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.AdvanceStage(context.Background(), 3, 1, model.StageRelease)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to release room 3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

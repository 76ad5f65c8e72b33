package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"travelatlas/internal/ai"
	intdb "travelatlas/internal/db"
	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func init() {
	now = func() time.Time { return fixed }
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	intdb.SetDialect(intdb.Postgres)
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

type stubAI struct {
	reply string
	err   error
	calls int
}

func (s *stubAI) Complete(context.Context, ai.Request) (string, error) {
	s.calls++
	return s.reply, s.err
}

var itineraryCols = []string{
	"id", "user_id", "title", "destination", "start_date", "end_date",
	"travelers", "budget", "pace", "interests", "notes", "cover_image_url",
	"status", "generation_error", "created_at", "updated_at",
}

func itineraryRows(id, owner, status string) *sqlmock.Rows {
	return sqlmock.NewRows(itineraryCols).AddRow(
		id, owner, "Paris", "Paris", "2025-05-01", "2025-05-03",
		2, "moderate", "balanced", `["art"]`, "", "",
		status, "", fixed, fixed,
	)
}

var activityCols = []string{
	"id", "itinerary_id", "day_number", "position", "title", "description", "location", "start_time",
	"duration_minutes", "cost_min", "cost_max", "currency", "category", "latitude", "longitude",
	"created_at", "updated_at",
}

func activityRow(id string, day, pos int) []driver.Value {
	return []driver.Value{id, "it-1", day, pos, "title " + id, "", "", "", 60, 0.0, 0.0, "EUR", "other", nil, nil, fixed, fixed}
}

func expectItinerary(mock sqlmock.Sqlmock, owner, status string) {
	mock.ExpectQuery(`FROM itineraries WHERE id = \$1`).WithArgs("it-1").
		WillReturnRows(itineraryRows("it-1", owner, status))
}

func TestItineraryCreateValidation(t *testing.T) {
	svc := ItineraryService{}
	ctx := context.Background()

	_, err := svc.Create(ctx, "", models.ItineraryInput{Title: "x", Destination: "y"})
	assert.True(t, domain.IsUnauthorized(err))

	_, err = svc.Create(ctx, "user-1", models.ItineraryInput{Title: "Trip"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(ctx, "user-1", models.ItineraryInput{Title: "Trip", Destination: "Oslo", StartDate: "2025-05-03", EndDate: "2025-05-01"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(ctx, "user-1", models.ItineraryInput{Title: "Trip", Destination: "Oslo", StartDate: "2025-05-03"})
	assert.True(t, domain.IsValidation(err))
}

func TestItineraryCreateDefaults(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO itineraries`).WillReturnResult(sqlmock.NewResult(0, 1))

	it, err := ItineraryService{Repo: repositories.ItineraryRepository{DB: db}}.Create(context.Background(), "user-1",
		models.ItineraryInput{Title: " Nordic  loop ", Destination: "Oslo", Interests: []string{"Fjords", "fjords"}})
	require.NoError(t, err)
	assert.Equal(t, "Nordic loop", it.Title)
	assert.Equal(t, 1, it.Travelers)
	assert.Equal(t, "moderate", it.Budget)
	assert.Equal(t, "balanced", it.Pace)
	assert.Equal(t, []string{"fjords"}, it.Interests)
	assert.Equal(t, models.StatusDraft, it.Status)
	assert.NotEmpty(t, it.ID)
}

func TestItineraryGetChecksOwner(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "someone-else", models.StatusReady)
	mock.ExpectQuery(`FROM itineraries`).WillReturnError(sql.ErrNoRows)

	svc := ItineraryService{Repo: repositories.ItineraryRepository{DB: db}}
	_, err := svc.Get(context.Background(), "user-1", "it-1")
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.Get(context.Background(), "user-1", "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestItineraryDetailGroupsDays(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities\s+WHERE itinerary_id = \$1`).WithArgs("it-1").
		WillReturnRows(sqlmock.NewRows(activityCols).AddRow(activityRow("a", 1, 0)...).AddRow(activityRow("b", 3, 0)...))

	svc := ItineraryService{Repo: repositories.ItineraryRepository{DB: db}, Activities: repositories.ActivityRepository{DB: db}}
	detail, err := svc.Detail(context.Background(), "user-1", "it-1")
	require.NoError(t, err)
	require.Len(t, detail.Days, 3)
	assert.Equal(t, "2025-05-02", detail.Days[1].Date)
	assert.Empty(t, detail.Days[1].Activities)
}

func TestItineraryUpdateShrinkMovesTrailingDays(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities`).WithArgs("it-1").
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow(activityRow("a", 1, 0)...).
			AddRow(activityRow("b", 2, 0)...).
			AddRow(activityRow("c", 3, 0)...).
			AddRow(activityRow("d", 3, 1)...))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE itineraries SET\s+title = \$1.*WHERE id = \$12 AND status <> \$13`).
		WithArgs("Paris", "Paris", "2025-05-01", "2025-05-02", 2, "moderate", "balanced", `["art"]`, "", "", fixed, "it-1", models.StatusGenerating).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE activities SET day_number`).WithArgs(2, 1, fixed, "c").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE activities SET day_number`).WithArgs(2, 2, fixed, "d").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := ItineraryService{Repo: repositories.ItineraryRepository{DB: db}, Activities: repositories.ActivityRepository{DB: db}}
	it, err := svc.Update(context.Background(), "user-1", "it-1", models.ItineraryInput{
		Title: "Paris", Destination: "Paris", StartDate: "2025-05-01", EndDate: "2025-05-02", Travelers: 2, Interests: []string{"art"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-02", it.EndDate)
}

func TestItineraryUpdateLosesRaceWithGeneration(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectBegin()
	mock.ExpectExec(`WHERE id = \$12 AND status <> \$13`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM itineraries WHERE id = \$1`).WithArgs("it-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.StatusGenerating))
	mock.ExpectRollback()

	svc := ItineraryService{Repo: repositories.ItineraryRepository{DB: db}, Activities: repositories.ActivityRepository{DB: db}}
	_, err := svc.Update(context.Background(), "user-1", "it-1", models.ItineraryInput{
		Title: "Paris", Destination: "Paris", StartDate: "2025-05-01", EndDate: "2025-05-03",
	})
	assert.True(t, domain.IsConflict(err), "got %v", err)
}

func activityService(db *sql.DB) ActivityService {
	return ActivityService{
		Repo:        repositories.ActivityRepository{DB: db},
		Itineraries: ItineraryService{Repo: repositories.ItineraryRepository{DB: db}},
	}
}

func TestActivityMoveWritesOnlyChangedRows(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities`).WithArgs("it-1").
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow(activityRow("a", 1, 0)...).
			AddRow(activityRow("b", 1, 1)...).
			AddRow(activityRow("c", 2, 0)...))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE activities SET day_number`).WithArgs(2, 0, fixed, "b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE activities SET day_number`).WithArgs(2, 1, fixed, "c").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	all, err := activityService(db).Move(context.Background(), "user-1", "it-1", "b", models.MoveInput{DayNumber: 2, Position: 0})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, 2, all[1].DayNumber)
}

func TestActivityMovePastLastDay(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities`).WillReturnRows(sqlmock.NewRows(activityCols).AddRow(activityRow("a", 1, 0)...))

	_, err := activityService(db).Move(context.Background(), "user-1", "it-1", "a", models.MoveInput{DayNumber: 4})
	assert.True(t, domain.IsValidation(err))
}

func TestActivityWritesBlockedWhileGenerating(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusGenerating)

	_, err := activityService(db).Create(context.Background(), "user-1", "it-1", models.ActivityInput{Title: "Picnic"})
	assert.True(t, domain.IsConflict(err))
}

func TestActivityCreateAppendsToLastDay(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities`).WillReturnRows(sqlmock.NewRows(activityCols).
		AddRow(activityRow("a", 1, 0)...).
		AddRow(activityRow("b", 2, 0)...))
	mock.ExpectExec(`INSERT INTO activities`).WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := activityService(db).Create(context.Background(), "user-1", "it-1",
		models.ActivityInput{Title: "Picnic", Category: "Park", CostMin: 30, CostMax: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, a.DayNumber)
	assert.Equal(t, 1, a.Position)
	assert.Equal(t, "nature", a.Category)
	assert.Equal(t, 10.0, a.CostMin)
	assert.Equal(t, "USD", a.Currency)
}

func TestActivityUpdateDayChangeAppendsAndCompacts(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities`).WillReturnRows(sqlmock.NewRows(activityCols).
		AddRow(activityRow("a", 1, 0)...).
		AddRow(activityRow("b", 1, 1)...).
		AddRow(activityRow("c", 1, 2)...).
		AddRow(activityRow("d", 2, 0)...))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE activities SET\s+day_number = \$1, position = \$2, title = \$3`).
		WithArgs(2, 1, "Night market", "", "", "19:00", 90, 0.0, 0.0,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), fixed, "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE activities SET day_number = \$1, position = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs(1, 1, fixed, "c").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a, err := activityService(db).Update(context.Background(), "user-1", "it-1", "b",
		models.ActivityInput{Title: "Night market", StartTime: "19:00", DurationMinutes: 90, DayNumber: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, a.DayNumber)
	assert.Equal(t, 1, a.Position)
}

func TestActivityUpdateRejectsUnpaddedTime(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities`).WillReturnRows(sqlmock.NewRows(activityCols).AddRow(activityRow("a", 1, 0)...))

	_, err := activityService(db).Update(context.Background(), "user-1", "it-1", "a",
		models.ActivityInput{Title: "Breakfast", StartTime: "9:30"})
	assert.True(t, domain.IsValidation(err), "got %v", err)
}

func TestActivityDeleteCompactsDay(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectQuery(`FROM activities`).WillReturnRows(sqlmock.NewRows(activityCols).
		AddRow(activityRow("a", 1, 0)...).
		AddRow(activityRow("b", 1, 1)...).
		AddRow(activityRow("c", 1, 2)...))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM activities WHERE id = \$1`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE activities SET day_number`).WithArgs(1, 0, fixed, "b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE activities SET day_number`).WithArgs(1, 1, fixed, "c").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, activityService(db).Delete(context.Background(), "user-1", "it-1", "a"))
}

const generatedPlan = `{"days":[{"day":1,"activities":[{"title":"Louvre","category":"museum"}]},{"day":2,"activities":[{"title":"Versailles","category":"sightseeing"},{"title":"Picnic","category":"park"}]}]}`

func TestDispatcherRunStoresActivities(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM activities WHERE itinerary_id = \$1`).WithArgs("it-1").WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < 3; i++ {
		mock.ExpectExec(`INSERT INTO activities`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`UPDATE itineraries SET status = \$1, generation_error = ''`).
		WithArgs(models.StatusReady, fixed, "it-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	client := &stubAI{reply: "```json\n" + generatedPlan + "\n```"}
	d := NewDispatcher(client, 1, time.Second)
	d.Itineraries = repositories.ItineraryRepository{DB: db}

	d.run(context.Background(), generationJob{itinerary: models.Itinerary{ID: "it-1", Destination: "Paris"}, days: 3})
	assert.Equal(t, 1, client.calls)
}

func TestDispatcherRunMarksUnreadableOutputFailed(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE itineraries SET status = \$1, generation_error = \$2`).
		WithArgs(models.StatusFailed, msgBadOutput, fixed, "it-1").WillReturnResult(sqlmock.NewResult(0, 1))

	d := NewDispatcher(&stubAI{reply: "I'd love to help!"}, 1, time.Second)
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	d.run(context.Background(), generationJob{itinerary: models.Itinerary{ID: "it-1"}, days: 2})
}

func TestDispatcherRunMarksProviderOutageFailed(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE itineraries SET status = \$1, generation_error = \$2`).
		WithArgs(models.StatusFailed, msgUnavailable, fixed, "it-1").WillReturnResult(sqlmock.NewResult(0, 1))

	d := NewDispatcher(&stubAI{err: domain.UnavailableError{Service: "ai", Err: errors.New("503")}}, 1, time.Second)
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	d.run(context.Background(), generationJob{itinerary: models.Itinerary{ID: "it-1"}, days: 2})
}

func TestGenerationStartQueueFull(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusReady)
	mock.ExpectExec(`UPDATE itineraries\s+SET status = \$1, generation_error = ''`).
		WithArgs(models.StatusGenerating, fixed, "it-1", models.StatusGenerating).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE itineraries SET status = \$1, generation_error = \$2`).
		WithArgs(models.StatusFailed, msgQueueFull, fixed, "it-1").WillReturnResult(sqlmock.NewResult(0, 1))

	d := NewDispatcher(&stubAI{}, 1, time.Second)
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	for d.enqueue(generationJob{}) {
	}

	svc := GenerationService{Dispatcher: d, Itineraries: ItineraryService{Repo: repositories.ItineraryRepository{DB: db}}}
	it, err := svc.Start(context.Background(), "user-1", GenerateInput{ItineraryID: "it-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, it.Status)
	assert.Equal(t, msgQueueFull, it.GenerationError)
}

func TestGenerationStartConflictWhenAlreadyRunning(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusGenerating)
	mock.ExpectExec(`UPDATE itineraries\s+SET status`).WillReturnResult(sqlmock.NewResult(0, 0))

	d := NewDispatcher(&stubAI{}, 1, time.Second)
	svc := GenerationService{Dispatcher: d, Itineraries: ItineraryService{Repo: repositories.ItineraryRepository{DB: db}}}
	_, err := svc.Start(context.Background(), "user-1", GenerateInput{ItineraryID: "it-1"})
	assert.True(t, domain.IsConflict(err))
}

func TestGenerationStartRejectsLongTripsBeforeSaving(t *testing.T) {
	db, _ := newMock(t)

	d := NewDispatcher(&stubAI{}, 1, time.Second)
	svc := GenerationService{Dispatcher: d, Itineraries: ItineraryService{Repo: repositories.ItineraryRepository{DB: db}}}
	_, err := svc.Start(context.Background(), "user-1", GenerateInput{ItineraryInput: models.ItineraryInput{
		Destination: "Patagonia", StartDate: "2025-01-01", EndDate: "2025-02-15",
	}})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err), "got %v", err)
	assert.Empty(t, d.jobs)
}

func TestGenerationStartWizardSavesDraftThenQueues(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO itineraries`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE itineraries\s+SET status = \$1, generation_error = ''`).
		WithArgs(models.StatusGenerating, fixed, sqlmock.AnyArg(), models.StatusGenerating).WillReturnResult(sqlmock.NewResult(0, 1))

	d := NewDispatcher(&stubAI{}, 1, time.Second)
	svc := GenerationService{Dispatcher: d, Itineraries: ItineraryService{Repo: repositories.ItineraryRepository{DB: db}}}
	it, err := svc.Start(context.Background(), "user-1", GenerateInput{ItineraryInput: models.ItineraryInput{
		Destination: "Kyoto", StartDate: "2025-05-01", EndDate: "2025-05-04",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Trip to Kyoto", it.Title)
	assert.Equal(t, models.StatusGenerating, it.Status)
	require.Len(t, d.jobs, 1)
	job := <-d.jobs
	assert.Equal(t, 4, job.days)
	assert.Equal(t, it.ID, job.itinerary.ID)
}

func TestDispatcherStartStop(t *testing.T) {
	d := NewDispatcher(&stubAI{}, 2, time.Second)
	d.Start(context.Background())
	d.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	assert.False(t, d.enqueue(generationJob{}), "stopped dispatcher must reject jobs")
}

// blockingAI holds every call until its context ends.
type blockingAI struct {
	started chan struct{}
}

func (b *blockingAI) Complete(ctx context.Context, _ ai.Request) (string, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func TestDispatcherStopFailsRunningAndQueuedJobs(t *testing.T) {
	db, mock := newMock(t)
	mock.MatchExpectationsInOrder(false)
	for _, id := range []string{"it-run", "it-queued"} {
		mock.ExpectExec(`UPDATE itineraries SET status = \$1, generation_error = \$2`).
			WithArgs(models.StatusFailed, msgInterrupted, fixed, id).WillReturnResult(sqlmock.NewResult(0, 1))
	}

	client := &blockingAI{started: make(chan struct{}, 1)}
	d := NewDispatcher(client, 1, time.Minute)
	d.SweepEvery = 0
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	d.Start(context.Background())

	require.True(t, d.enqueue(generationJob{itinerary: models.Itinerary{ID: "it-run"}, days: 1}))
	select {
	case <-client.started:
	case <-time.After(time.Second):
		t.Fatal("worker never picked up the first job")
	}
	require.True(t, d.enqueue(generationJob{itinerary: models.Itinerary{ID: "it-queued"}, days: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	assert.Empty(t, d.jobs)
	assert.Empty(t, d.ownedIDs())
}

// slowAI answers after delay unless the context ends first.
type slowAI struct {
	delay time.Duration
	reply string
}

func (s slowAI) Complete(ctx context.Context, _ ai.Request) (string, error) {
	select {
	case <-time.After(s.delay):
		return s.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestDispatcherRunLeavesRoomToStoreLateReply(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM activities WHERE itinerary_id = \$1`).WithArgs("it-1").WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < 3; i++ {
		mock.ExpectExec(`INSERT INTO activities`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`UPDATE itineraries SET status = \$1, generation_error = ''`).
		WithArgs(models.StatusReady, fixed, "it-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// the reply lands after Timeout but well inside the job deadline
	d := NewDispatcher(slowAI{delay: 40 * time.Millisecond, reply: generatedPlan}, 1, 10*time.Millisecond)
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	d.run(context.Background(), generationJob{itinerary: models.Itinerary{ID: "it-1", Destination: "Paris"}, days: 3})

	assert.Equal(t, 10*time.Millisecond+completeHeadroom, d.jobTimeout())
	assert.Zero(t, NewDispatcher(nil, 1, 0).jobTimeout())
}

func TestDispatcherRecoverStale(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`WHERE status = \$4 AND updated_at < \$5 AND id NOT IN \(\$6\)`).
		WithArgs(models.StatusFailed, msgInterrupted, fixed, models.StatusGenerating, fixed.Add(-StaleGenerationAfter), "it-mine").
		WillReturnResult(sqlmock.NewResult(0, 1))

	d := NewDispatcher(nil, 1, time.Second)
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	require.True(t, d.enqueue(generationJob{itinerary: models.Itinerary{ID: "it-mine"}}))
	n, err := d.RecoverStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDispatcherRecoverInterruptedFailsEveryGeneratingRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`WHERE status = \$4 AND updated_at < \$5$`).
		WithArgs(models.StatusFailed, msgInterrupted, fixed, models.StatusGenerating, fixed).
		WillReturnResult(sqlmock.NewResult(0, 3))

	d := NewDispatcher(nil, 1, time.Second)
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	n, err := d.RecoverInterrupted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDispatcherSweepsStaleRowsWhileRunning(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`WHERE status = \$4 AND updated_at < \$5`).
		WithArgs(models.StatusFailed, msgInterrupted, fixed, models.StatusGenerating, fixed.Add(-StaleGenerationAfter)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	d := NewDispatcher(&stubAI{}, 1, time.Second)
	d.SweepEvery = 10 * time.Millisecond
	d.Itineraries = repositories.ItineraryRepository{DB: db}
	d.Start(context.Background())
	require.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
}

func TestChatSplitsSuggestions(t *testing.T) {
	client := &stubAI{reply: "Try a food tour.\n```json\n{\"activities\":[{\"day\":1,\"title\":\"Food tour\",\"category\":\"food\"}]}\n```"}
	reply, err := ChatService{AI: client}.Chat(context.Background(), "user-1", ChatInput{Message: "ideas?"})
	require.NoError(t, err)
	assert.Equal(t, "Try a food tour.", reply.Reply)
	require.Len(t, reply.SuggestedActivities, 1)
	assert.Equal(t, "Food tour", reply.SuggestedActivities[0].Title)
}

func TestChatErrors(t *testing.T) {
	_, err := ChatService{AI: &stubAI{reply: "   "}}.Chat(context.Background(), "", ChatInput{Message: "hi"})
	assert.True(t, domain.IsBadUpstream(err))

	_, err = ChatService{AI: &stubAI{err: domain.UnavailableError{Service: "ai"}}}.Chat(context.Background(), "", ChatInput{Message: "hi"})
	assert.True(t, domain.IsUnavailable(err))

	_, err = ChatService{AI: &stubAI{}}.Chat(context.Background(), "", ChatInput{Message: "  "})
	assert.True(t, domain.IsValidation(err))
}

func TestFavoriteCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT id FROM favorite_places`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))

	_, err := FavoriteService{Repo: repositories.FavoriteRepository{DB: db}}.Create(context.Background(), "user-1",
		models.FavoritePlaceInput{Name: "Cafe de Flore", PlaceID: "ChIJ1"})
	assert.True(t, domain.IsConflict(err))
}

var atlasCols = []string{
	"id", "user_id", "itinerary_id", "title", "slug", "summary", "destination", "cover_image_url",
	"sections", "tags", "is_published", "published_at", "view_count", "created_at", "updated_at",
}

func TestAtlasGuideCountsViewAndResolvesImages(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE slug = \$1 AND is_published = \$2`).WithArgs("rome-1a2b3c4d", true).
		WillReturnRows(sqlmock.NewRows(atlasCols).AddRow(
			"f1", "user-1", "", "Rome", "rome-1a2b3c4d", "", "Rome", "covers/rome.jpg",
			`[{"day_number":1,"title":"Day 1","body":"Ciao","images":["days/1.jpg"]}]`, `[]`,
			true, fixed, 4, fixed, fixed))
	mock.ExpectExec(`UPDATE atlas_files SET view_count = view_count \+ 1`).WithArgs("f1").WillReturnResult(sqlmock.NewResult(0, 1))

	svc := AtlasService{
		Repo:       repositories.AtlasRepository{DB: db},
		ResolveURL: func(p string) string { return "https://cdn.test/" + p },
	}
	f, err := svc.Guide(context.Background(), "Rome-1a2b3c4d")
	require.NoError(t, err)
	assert.Equal(t, 5, f.ViewCount)
	assert.Equal(t, "https://cdn.test/covers/rome.jpg", f.CoverImageURL)
	assert.Equal(t, "https://cdn.test/days/1.jpg", f.Sections[0].Images[0])
}

func TestAtlasGetUnpublishedByStranger(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM atlas_files WHERE id = \$1`).WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(atlasCols).AddRow(
			"f1", "user-1", "", "Rome", "rome-1a2b3c4d", "", "Rome", "", `[]`, `[]`,
			false, nil, 0, fixed, fixed))

	_, err := AtlasService{Repo: repositories.AtlasRepository{DB: db}}.Get(context.Background(), "user-2", "f1")
	assert.True(t, domain.IsForbidden(err))
}

func TestAtlasCreateAssignsSlug(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO atlas_files`).WillReturnResult(sqlmock.NewResult(0, 1))

	f, err := AtlasService{Repo: repositories.AtlasRepository{DB: db}}.Create(context.Background(), "user-1",
		models.AtlasFileInput{Title: "Road trip: Iceland", Tags: []string{"Iceland", "iceland", " Roadtrip "}})
	require.NoError(t, err)
	assert.Regexp(t, `^road-trip-iceland-[0-9a-f]{8}$`, f.Slug)
	assert.Equal(t, []string{"iceland", "roadtrip"}, f.Tags)
	assert.False(t, f.IsPublished)
}

func atlasRow(owner, summary, sections string) *sqlmock.Rows {
	return sqlmock.NewRows(atlasCols).AddRow(
		"f1", owner, "", "Rome", "rome-1a2b3c4d", summary, "Rome", "", sections, `[]`,
		false, nil, 0, fixed, fixed)
}

func TestAtlasPublishNeedsContent(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM atlas_files WHERE id = \$1`).WithArgs("f1").WillReturnRows(atlasRow("user-1", "", `[]`))

	_, err := AtlasService{Repo: repositories.AtlasRepository{DB: db}}.SetPublished(context.Background(), "user-1", "f1", true)
	assert.True(t, domain.IsValidation(err), "got %v", err)
}

func TestAtlasPublishSetsPublishedAt(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM atlas_files WHERE id = \$1`).WithArgs("f1").WillReturnRows(atlasRow("user-1", "Three days in Rome", `[]`))
	mock.ExpectExec(`SET is_published = \$1, published_at = COALESCE\(published_at, \$2\)`).
		WithArgs(true, fixed, fixed, "f1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM atlas_files WHERE id = \$1`).WithArgs("f1").WillReturnRows(atlasRow("user-2", "Three days in Rome", `[]`))

	svc := AtlasService{Repo: repositories.AtlasRepository{DB: db}}
	f, err := svc.SetPublished(context.Background(), "user-1", "f1", true)
	require.NoError(t, err)
	assert.True(t, f.IsPublished)
	require.NotNil(t, f.PublishedAt)
	assert.Equal(t, fixed, *f.PublishedAt)

	_, err = svc.SetPublished(context.Background(), "user-1", "f1", false)
	assert.True(t, domain.IsForbidden(err), "got %v", err)
}

func TestAtlasFromItineraryConflictWhileGenerating(t *testing.T) {
	db, mock := newMock(t)
	expectItinerary(mock, "user-1", models.StatusGenerating)
	mock.ExpectQuery(`FROM activities`).WithArgs("it-1").WillReturnRows(sqlmock.NewRows(activityCols))

	svc := AtlasService{
		Repo:        repositories.AtlasRepository{DB: db},
		Itineraries: ItineraryService{Repo: repositories.ItineraryRepository{DB: db}, Activities: repositories.ActivityRepository{DB: db}},
	}
	_, err := svc.CreateFromItinerary(context.Background(), "user-1", "it-1")
	assert.True(t, domain.IsConflict(err), "got %v", err)
}

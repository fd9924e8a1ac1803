package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/reconcile"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) *time.Time {
	t := time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
	return &t
}

type testDeps struct {
	svc           *ReconcileServiceImpl
	repo          *mockAttendanceRepo
	notifications *mockNotifications
}

func newTestService(cfg Config, recs ...attendance.Attendance) testDeps {
	repo := newMockAttendanceRepo(recs...)
	notifications := &mockNotifications{}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Millisecond
	}
	svc := NewReconcileService(&mockTransactor{repo: repo}, repo, notifications, cfg).(*ReconcileServiceImpl)
	return testDeps{svc: svc, repo: repo, notifications: notifications}
}

func dupRecords() []attendance.Attendance {
	return []attendance.Attendance{
		{ID: "x", StaffID: "s1", WorkDate: "2024-01-01", StartTime: at(9)},
		{ID: "y", StaffID: "s1", WorkDate: "2024-01-01", StartTime: at(8)},
		{ID: "z", StaffID: "s1", WorkDate: "2024-01-01"},
	}
}

func openReq(ids ...string) reconcile.OpenRequest {
	return reconcile.OpenRequest{StaffID: "s1", WorkDate: "2024-01-01", IDs: ids}
}

func candidateIDs(resp reconcile.SessionResponse) []string {
	ids := make([]string, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestOpen_SortsAndExcludesFailures(t *testing.T) {
	recs := append(dupRecords(),
		attendance.Attendance{ID: "foreign", StaffID: "s2", WorkDate: "2024-01-01"},
		attendance.Attendance{ID: "broken", StaffID: "s1", WorkDate: "2024-01-01"},
	)
	d := newTestService(Config{}, recs...)
	d.repo.getErrs["broken"] = errBackend

	resp, err := d.svc.Open(context.Background(), openReq("x", "y", "z", "foreign", "broken", "missing", "x"))
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateReady, resp.State)
	assert.Equal(t, reconcile.ModeRecord, resp.Mode)
	assert.Equal(t, []string{"z", "y", "x"}, candidateIDs(resp), "nil start time first, then by start time")
	require.Len(t, resp.FetchFailures, 3)
	assert.Equal(t, "foreign", resp.FetchFailures[0].ID)
	assert.Equal(t, "broken", resp.FetchFailures[1].ID)
	assert.Equal(t, "missing", resp.FetchFailures[2].ID)
	assert.Equal(t, reconcile.ComparisonFields, resp.Fields)
}

func TestOpen_AllSettleWaitsForSlowFetches(t *testing.T) {
	d := newTestService(Config{}, dupRecords()...)
	d.repo.getDelay = 20 * time.Millisecond

	start := time.Now()
	resp, err := d.svc.Open(context.Background(), openReq("x", "y", "z"))
	require.NoError(t, err)
	assert.Len(t, resp.Candidates, 3)
	// concurrent, so well under three sequential delays
	assert.Less(t, time.Since(start), 55*time.Millisecond)
}

func TestOpen_CancelledDiscardsSession(t *testing.T) {
	d := newTestService(Config{}, dupRecords()...)
	d.repo.getDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.svc.Open(ctx, openReq("x", "y"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, d.svc.sessions)
}

func TestOpen_Validation(t *testing.T) {
	d := newTestService(Config{})

	_, err := d.svc.Open(context.Background(), reconcile.OpenRequest{StaffID: "s1", WorkDate: "2024-01-01", IDs: []string{"x"}})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestResolve_KeepsExactlySelected(t *testing.T) {
	d := newTestService(Config{}, dupRecords()...)
	ctx := context.Background()

	opened, err := d.svc.Open(ctx, openReq("x", "y", "z"))
	require.NoError(t, err)

	_, err = d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	assert.ErrorIs(t, err, reconcile.ErrNoSelection)

	_, err = d.svc.SelectRecord(ctx, opened.ID, reconcile.SelectRecordRequest{RecordID: "y"})
	require.NoError(t, err)

	_, err = d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: false})
	assert.ErrorIs(t, err, reconcile.ErrNotConfirmed)

	result, err := d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	require.NoError(t, err)

	assert.Equal(t, "y", result.KeptID)
	assert.Equal(t, []string{"z", "x"}, result.DeletedIDs)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 1, result.Remaining)
	assert.Equal(t, []string{"y"}, candidateIDs(result.Session))
	assert.Equal(t, reconcile.StateReady, result.Session.State)
	assert.Equal(t, []string{"z", "x"}, d.repo.deleteOrder, "deletes run sequentially in candidate order")

	assert.True(t, d.repo.has("y"))
	assert.False(t, d.repo.has("x"))
	assert.Len(t, d.notifications.events(notification.EventReconcileCompleted), 1)
}

func TestResolve_BestEffortContinuesPastFailure(t *testing.T) {
	d := newTestService(Config{DeleteMaxTries: 2}, dupRecords()...)
	d.repo.deleteFails["y"] = -1
	ctx := context.Background()

	opened, err := d.svc.Open(ctx, openReq("x", "y", "z"))
	require.NoError(t, err)
	_, err = d.svc.SelectRecord(ctx, opened.ID, reconcile.SelectRecordRequest{RecordID: "z"})
	require.NoError(t, err)

	result, err := d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, result.DeletedIDs)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "y", result.Failures[0].ID)
	assert.Equal(t, 2, d.repo.deleteCalls["y"])
	assert.ElementsMatch(t, []string{"z", "y"}, candidateIDs(result.Session))
	assert.Equal(t, 2, result.Remaining)

	failed := d.notifications.events(notification.EventReconcileFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, notification.TopicReconciliation, failed[0].Topic)
}

func TestResolve_RetryRecovers(t *testing.T) {
	d := newTestService(Config{DeleteMaxTries: 3}, dupRecords()...)
	d.repo.deleteFails["x"] = 2
	ctx := context.Background()

	opened, _ := d.svc.Open(ctx, openReq("x", "y"))
	_, _ = d.svc.SelectRecord(ctx, opened.ID, reconcile.SelectRecordRequest{RecordID: "y"})

	result, err := d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, result.DeletedIDs)
	assert.Equal(t, 3, d.repo.deleteCalls["x"])
}

func TestResolve_AlreadyDeletedCountsAsDeleted(t *testing.T) {
	d := newTestService(Config{}, dupRecords()...)
	ctx := context.Background()

	opened, _ := d.svc.Open(ctx, openReq("x", "y"))
	_, _ = d.svc.SelectRecord(ctx, opened.ID, reconcile.SelectRecordRequest{RecordID: "x"})
	require.NoError(t, d.repo.Delete(ctx, "y"))

	result, err := d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, result.DeletedIDs)
	assert.Equal(t, 1, result.Remaining)
}

func TestResolve_AtomicRollsBack(t *testing.T) {
	d := newTestService(Config{Strategy: StrategyAtomic}, dupRecords()...)
	d.repo.deleteFails["x"] = -1
	ctx := context.Background()

	opened, _ := d.svc.Open(ctx, openReq("x", "y", "z"))
	_, _ = d.svc.SelectRecord(ctx, opened.ID, reconcile.SelectRecordRequest{RecordID: "y"})

	result, err := d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	assert.ErrorIs(t, err, reconcile.ErrResolveRolledBack)

	assert.True(t, d.repo.has("z"), "z delete rolled back")
	assert.True(t, d.repo.has("x"))
	assert.Empty(t, result.DeletedIDs)
	assert.Equal(t, 3, result.Remaining)
	assert.Equal(t, reconcile.StateReady, result.Session.State)
	assert.Len(t, d.notifications.events(notification.EventReconcileFailed), 1)

	// the session is usable again
	d.repo.deleteFails = map[string]int{}
	result, err = d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, candidateIDs(result.Session))
}

func TestFieldModeAndModeGuards(t *testing.T) {
	d := newTestService(Config{}, dupRecords()...)
	ctx := context.Background()
	opened, _ := d.svc.Open(ctx, openReq("x", "y"))

	_, err := d.svc.SelectField(ctx, opened.ID, reconcile.FieldSelection{RecordID: "x", Field: "remarks"})
	assert.ErrorIs(t, err, reconcile.ErrWrongSelectionMode)

	resp, err := d.svc.SetMode(ctx, opened.ID, reconcile.SetModeRequest{Mode: reconcile.ModeField})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ModeField, resp.Mode)

	_, err = d.svc.SelectField(ctx, opened.ID, reconcile.FieldSelection{RecordID: "x", Field: "start_time"})
	require.NoError(t, err)
	resp, err = d.svc.SelectField(ctx, opened.ID, reconcile.FieldSelection{RecordID: "x", Field: "absent_flag", Extend: true})
	require.NoError(t, err)
	assert.Len(t, resp.FieldSelections, 5)

	_, err = d.svc.Resolve(ctx, opened.ID, reconcile.ResolveRequest{Confirm: true})
	assert.ErrorIs(t, err, reconcile.ErrWrongSelectionMode)
	assert.True(t, d.repo.has("x"))
	assert.True(t, d.repo.has("y"))
}

func TestCloseAndGet(t *testing.T) {
	d := newTestService(Config{}, dupRecords()...)
	ctx := context.Background()
	opened, _ := d.svc.Open(ctx, openReq("x", "y"))

	got, err := d.svc.Get(ctx, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, got.ID)

	require.NoError(t, d.svc.Close(ctx, opened.ID))
	_, err = d.svc.Get(ctx, opened.ID)
	assert.ErrorIs(t, err, reconcile.ErrSessionNotFound)
	assert.ErrorIs(t, d.svc.Close(ctx, opened.ID), reconcile.ErrSessionNotFound)
}

func TestSweep(t *testing.T) {
	d := newTestService(Config{}, dupRecords()...)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	d.svc.now = func() time.Time { return now }

	old, _ := d.svc.Open(ctx, openReq("x", "y"))
	now = now.Add(20 * time.Minute)
	fresh, _ := d.svc.Open(ctx, openReq("y", "z"))

	closed := d.svc.Sweep(ctx, 10*time.Minute)
	assert.Equal(t, 1, closed)

	_, err := d.svc.Get(ctx, old.ID)
	assert.ErrorIs(t, err, reconcile.ErrSessionNotFound)
	_, err = d.svc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

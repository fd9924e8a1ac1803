package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/reconcile"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	notificationService "github.com/cmlabs-hris/attendance-backend-go/internal/service/notification"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	staffOneID = "0190c1d2-5a10-7000-8000-000000000001"
	recordID   = "0190c1d2-5a10-7000-8000-0000000000a1"
)

type testEnv struct {
	router        *chi.Mux
	jwt           jwt.Service
	attendance    *fakeAttendanceService
	reconcile     *fakeReconcileService
	roster        *fakeRosterService
	notifications notification.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	jwtSvc, err := jwt.NewJWTService("handler-test-secret", "1h")
	require.NoError(t, err)

	notifSvc := notificationService.NewNotificationService(sse.NewHub(10), notificationService.Config{})
	t.Cleanup(notifSvc.Stop)

	env := &testEnv{
		jwt:           jwtSvc,
		attendance:    &fakeAttendanceService{},
		reconcile:     &fakeReconcileService{},
		roster:        &fakeRosterService{},
		notifications: notifSvc,
	}
	env.router = NewRouter(RouterConfig{
		AppName:        "attendance-api-test",
		AllowedOrigins: []string{"*"},
		LogOutput:      io.Discard,
	}, jwtSvc, Handlers{
		Attendance:   NewAttendanceHandler(env.attendance, time.UTC),
		Reconcile:    NewReconcileHandler(env.reconcile),
		Roster:       NewRosterHandler(env.roster),
		Notification: NewNotificationHandler(notifSvc, jwtSvc),
	})
	return env
}

func (e *testEnv) token(t *testing.T, staffID string, role user.Role) string {
	t.Helper()
	token, _, err := e.jwt.GenerateAccessToken(staffID, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp response.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestRouter_RequiresAccessToken(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/api/v1/staff/"+staffOneID+"/attendances", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sseToken, _, err := env.jwt.GenerateSSEToken(staffOneID)
	require.NoError(t, err)
	rec, _ = env.do(t, http.MethodGet, "/api/v1/staff/"+staffOneID+"/attendances", sseToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListByStaff_OwnOrViewAll(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.listByStaff = func(_ context.Context, req attendance.ListByStaffRequest) (attendance.CalendarListResponse, error) {
		return attendance.CalendarListResponse{
			StaffID:     req.StaffID,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Attendances: []attendance.AttendanceResponse{{StaffID: req.StaffID, WorkDate: req.StartDate}},
			Warnings:    []string{attendance.DuplicateWarningMessage},
			Duplicates:  []attendance.DuplicateDetail{{WorkDate: req.StartDate, IDs: []string{"a", "b"}, StaffID: req.StaffID}},
		}, nil
	}
	path := "/api/v1/staff/" + staffOneID + "/attendances?start_date=2024-01-01&end_date=2024-01-01"

	rec, resp := env.do(t, http.MethodGet, path, env.token(t, staffOneID, user.RoleStaff), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, rec.Body.String(), `"warnings":["`+attendance.DuplicateWarningMessage+`"]`)

	rec, _ = env.do(t, http.MethodGet, path, env.token(t, "s2", user.RoleStaff), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodGet, path, env.token(t, "admin", user.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListByStaff_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/staff/"+staffOneID+"/attendances?start_date=2024-02-01&end_date=2024-01-01", env.token(t, staffOneID, user.RoleStaff), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "end_date")
}

func TestGetAttendance_HidesOtherStaffRecords(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.get = func(_ context.Context, id string) (attendance.AttendanceResponse, error) {
		return attendance.AttendanceResponse{ID: id, StaffID: staffOneID}, nil
	}

	rec, _ := env.do(t, http.MethodGet, "/api/v1/attendances/"+recordID, env.token(t, "s2", user.RoleStaff), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/attendances/"+recordID, env.token(t, staffOneID, user.RoleStaff), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateAttendance(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.update = func(_ context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
		if *req.Revision != 3 {
			return attendance.AttendanceResponse{}, attendance.ErrRevisionConflict
		}
		return attendance.AttendanceResponse{ID: req.ID, Revision: 4}, nil
	}
	admin := env.token(t, "admin", user.RoleAdmin)

	rec, _ := env.do(t, http.MethodPut, "/api/v1/attendances/"+recordID, admin, map[string]interface{}{"revision": 2})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp := env.do(t, http.MethodPut, "/api/v1/attendances/"+recordID, admin, map[string]interface{}{"revision": 3})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = env.do(t, http.MethodPut, "/api/v1/attendances/"+recordID, env.token(t, staffOneID, user.RoleStaff), map[string]interface{}{"revision": 3})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAttendance_Conflict(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.create = func(context.Context, attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceExists
	}

	rec, _ := env.do(t, http.MethodPost, "/api/v1/attendances", env.token(t, "admin", user.RoleAdmin),
		map[string]interface{}{"staff_id": staffOneID, "work_date": "2024-01-01"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClockIn_UsesCallerStaffID(t *testing.T) {
	env := newTestEnv(t)
	var got attendance.ClockRequest
	env.attendance.clockIn = func(_ context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
		got = req
		return attendance.AttendanceResponse{StaffID: req.StaffID}, nil
	}

	rec, _ := env.do(t, http.MethodPost, "/api/v1/attendances/clock-in", env.token(t, "s7", user.RoleStaff), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s7", got.StaffID)
	assert.Equal(t, time.UTC, got.Location)
}

func TestChangeRequestFlow_Permissions(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.submit = func(_ context.Context, req attendance.SubmitChangeRequestRequest) (attendance.AttendanceResponse, error) {
		return attendance.AttendanceResponse{ID: req.AttendanceID, StaffID: req.StaffID}, nil
	}
	env.attendance.approve = func(_ context.Context, req attendance.ApproveChangeRequestRequest) (attendance.AttendanceResponse, error) {
		if req.ChangeRequestID != "cr1" {
			return attendance.AttendanceResponse{}, attendance.ErrChangeRequestNotFound
		}
		return attendance.AttendanceResponse{ID: req.AttendanceID}, nil
	}
	staff := env.token(t, staffOneID, user.RoleStaff)
	admin := env.token(t, "admin", user.RoleAdmin)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/attendances/"+recordID+"/change-requests", staff, map[string]interface{}{"remarks": "late train"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/attendances/"+recordID+"/change-requests/cr1/approve", staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/attendances/"+recordID+"/change-requests/cr1/approve", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/attendances/"+recordID+"/change-requests/cr9/approve", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileSessions(t *testing.T) {
	env := newTestEnv(t)
	env.reconcile.open = func(_ context.Context, req reconcile.OpenRequest) (reconcile.SessionResponse, error) {
		return reconcile.SessionResponse{ID: "sess1", StaffID: req.StaffID, WorkDate: req.WorkDate, State: reconcile.StateReady}, nil
	}
	env.reconcile.get = func(context.Context, string) (reconcile.SessionResponse, error) {
		return reconcile.SessionResponse{}, reconcile.ErrSessionNotFound
	}
	env.reconcile.resolve = func(context.Context, string, reconcile.ResolveRequest) (reconcile.ResolveResult, error) {
		return reconcile.ResolveResult{}, reconcile.ErrResolveRolledBack
	}
	admin := env.token(t, "admin", user.RoleAdmin)
	open := map[string]interface{}{"staff_id": staffOneID, "work_date": "2024-01-01", "ids": []string{"a", "b"}}

	rec, _ := env.do(t, http.MethodPost, "/api/v1/reconcile-sessions", env.token(t, staffOneID, user.RoleStaff), open)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/reconcile-sessions", admin, open)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/reconcile-sessions", admin, map[string]interface{}{"staff_id": staffOneID, "work_date": "2024-01-01", "ids": []string{"a"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/reconcile-sessions/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = env.do(t, http.MethodPost, "/api/v1/reconcile-sessions/sess1/resolve", admin, map[string]bool{"confirm": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RESOLVE_ROLLED_BACK", resp.Error.Code)
}

func TestRoster_Permissions(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/rosters/daily?date=2024-01-01", env.token(t, staffOneID, user.RoleStaff), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/rosters/daily?date=today", env.token(t, "admin", user.RoleAdmin), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/v1/rosters", env.token(t, "admin", user.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.roster.cleared)
}

func TestRoster_ListAndClearStaff(t *testing.T) {
	env := newTestEnv(t)
	env.roster.states = []roster.StaffState{{StaffID: staffOneID, StaffName: "Alice", Date: "2024-01-01"}}
	admin := env.token(t, "admin", user.RoleAdmin)

	rec, _ := env.do(t, http.MethodGet, "/api/v1/rosters", env.token(t, staffOneID, user.RoleStaff), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/rosters", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, rec.Body.String(), `"staff_name":"Alice"`)

	rec, _ = env.do(t, http.MethodDelete, "/api/v1/rosters/staff/"+staffOneID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{staffOneID}, env.roster.clearedStaff)
}

func TestNotificationStream_RejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/api/v1/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	access := env.token(t, staffOneID, user.RoleStaff)
	rec, _ = env.do(t, http.MethodGet, "/api/v1/notifications/stream?token="+access, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sseToken, _, err := env.jwt.GenerateSSEToken(staffOneID)
	require.NoError(t, err)
	rec, _ = env.do(t, http.MethodGet, "/api/v1/notifications/stream?topics=payroll&token="+sseToken, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationStream_DeliversWarnings(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	rec, resp := env.do(t, http.MethodPost, "/api/v1/notifications/sse-token", env.token(t, staffOneID, user.RoleStaff), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var tokenResp notification.SSETokenResponse
	require.NoError(t, json.Unmarshal(data, &tokenResp))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/notifications/stream?topics="+notification.TopicAttendanceWarnings+"&token="+tokenResp.Token, nil)
	require.NoError(t, err)
	streamResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer streamResp.Body.Close()
	require.Equal(t, http.StatusOK, streamResp.StatusCode)

	reader := bufio.NewReader(streamResp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	// the subscription is registered before the connected event is written
	require.NoError(t, env.notifications.Publish(ctx, notification.Message{
		Topic:   notification.TopicAttendanceWarnings,
		Event:   notification.EventDuplicateWarning,
		Message: attendance.DuplicateWarningMessage,
		Detail:  attendance.DuplicateDetail{WorkDate: "2024-01-01", IDs: []string{"a", "b"}, StaffID: staffOneID},
	}))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: "+notification.EventDuplicateWarning) {
			break
		}
	}
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var msg notification.MessageResponse
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg))
	assert.Equal(t, attendance.DuplicateWarningMessage, msg.Message)
	assert.NotEmpty(t, msg.ID)
}

func TestAttendance_MalformedIDsAreNotFound(t *testing.T) {
	env := newTestEnv(t)
	// the fake funcs are unset, so reaching the service would panic into a 500
	admin := env.token(t, "admin", user.RoleAdmin)

	cases := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/api/v1/attendances/abc", nil},
		{http.MethodPut, "/api/v1/attendances/abc", map[string]interface{}{"revision": 1}},
		{http.MethodDelete, "/api/v1/attendances/abc", nil},
		{http.MethodPost, "/api/v1/attendances/abc/change-requests", map[string]interface{}{"remarks": "x"}},
		{http.MethodPost, "/api/v1/attendances/abc/change-requests/cr1/approve", nil},
		{http.MethodGet, "/api/v1/staff/nobody/attendances?start_date=2024-01-01&end_date=2024-01-01", nil},
	}
	for _, c := range cases {
		rec, resp := env.do(t, c.method, c.path, admin, c.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", c.method, c.path)
		assert.False(t, resp.Success)
	}
}

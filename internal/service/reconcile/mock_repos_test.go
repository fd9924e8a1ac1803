package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
)

var errBackend = errors.New("backend unavailable")

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance

	getErrs     map[string]error
	getDelay    time.Duration
	deleteFails map[string]int // remaining failing attempts; -1 fails forever
	deleteCalls map[string]int
	deleteOrder []string
}

func newMockAttendanceRepo(recs ...attendance.Attendance) *mockAttendanceRepo {
	m := &mockAttendanceRepo{
		records:     make(map[string]attendance.Attendance),
		getErrs:     make(map[string]error),
		deleteFails: make(map[string]int),
		deleteCalls: make(map[string]int),
	}
	for _, r := range recs {
		m.records[r.ID] = r
	}
	return m
}

func (m *mockAttendanceRepo) Create(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[att.ID] = att
	return att, nil
}

func (m *mockAttendanceRepo) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	if m.getDelay > 0 {
		select {
		case <-time.After(m.getDelay):
		case <-ctx.Done():
			return attendance.Attendance{}, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.getErrs[id]; ok {
		return attendance.Attendance{}, err
	}
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (m *mockAttendanceRepo) ListByStaffPage(_ context.Context, _ attendance.StaffRangeQuery, _ *string) ([]attendance.Attendance, *string, error) {
	return nil, nil, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, att attendance.Attendance, _ int) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[att.ID] = att
	return att, nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls[id]++
	m.deleteOrder = append(m.deleteOrder, id)
	if n, ok := m.deleteFails[id]; ok && n != 0 {
		if n > 0 {
			m.deleteFails[id] = n - 1
		}
		return errBackend
	}
	if _, ok := m.records[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceRepo) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok
}

// ── Mock Transactor ──

// mockTransactor restores the repository's records when fn fails.
type mockTransactor struct {
	repo *mockAttendanceRepo
}

func (m *mockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.repo.mu.Lock()
	snapshot := make(map[string]attendance.Attendance, len(m.repo.records))
	for k, v := range m.repo.records {
		snapshot[k] = v
	}
	m.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.repo.mu.Lock()
		m.repo.records = snapshot
		m.repo.mu.Unlock()
		return err
	}
	return nil
}

// ── Mock notification.Service ──

type mockNotifications struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (m *mockNotifications) Publish(_ context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockNotifications) Subscribe(_ context.Context, _ string) (<-chan notification.Message, func()) {
	return make(chan notification.Message), func() {}
}

func (m *mockNotifications) Stop() {}

func (m *mockNotifications) events(event string) []notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Message
	for _, msg := range m.messages {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}

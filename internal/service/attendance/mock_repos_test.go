package attendance

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
)

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance
	order   []string
	seq     int

	pageCalls int
	listErr   error
	// loopToken makes every page return the same token
	loopToken bool

	createdInTx []bool
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]attendance.Attendance)}
}

func (m *mockAttendanceRepo) seed(recs ...attendance.Attendance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		if r.ID == "" {
			m.seq++
			r.ID = "gen-" + strconv.Itoa(m.seq)
		}
		if r.Revision == 0 {
			r.Revision = 1
		}
		m.records[r.ID] = r
		m.order = append(m.order, r.ID)
	}
}

func (m *mockAttendanceRepo) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdInTx = append(m.createdInTx, inMockTx(ctx))
	m.seq++
	att.ID = "new-" + strconv.Itoa(m.seq)
	m.records[att.ID] = att
	m.order = append(m.order, att.ID)
	return att, nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (m *mockAttendanceRepo) ListByStaffPage(_ context.Context, q attendance.StaffRangeQuery, token *string) ([]attendance.Attendance, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageCalls++
	if m.listErr != nil {
		return nil, nil, m.listErr
	}

	var matched []attendance.Attendance
	for _, id := range m.order {
		r, ok := m.records[id]
		if !ok || r.StaffID != q.StaffID {
			continue
		}
		if q.WorkDate != nil && r.WorkDate != *q.WorkDate {
			continue
		}
		if q.StartDate != nil && r.WorkDate < *q.StartDate {
			continue
		}
		if q.EndDate != nil && r.WorkDate > *q.EndDate {
			continue
		}
		matched = append(matched, r)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].WorkDate < matched[j].WorkDate })

	offset := 0
	if token != nil {
		n, err := strconv.Atoi(*token)
		if err != nil {
			return nil, nil, attendance.ErrInvalidCursor
		}
		offset = n
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + q.Limit
	if q.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	page := matched[offset:end]
	if m.loopToken {
		t := "0"
		return page, &t, nil
	}
	if end == len(matched) {
		return page, nil, nil
	}
	next := strconv.Itoa(end)
	return page, &next, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, att attendance.Attendance, expectedRevision int) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[att.ID]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	if cur.Revision != expectedRevision {
		return attendance.Attendance{}, attendance.ErrRevisionConflict
	}
	m.records[att.ID] = att
	return att, nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(m.records, id)
	return nil
}

// ── Mock StaffRepository ──

type mockStaffRepo struct {
	staff map[string]staff.Staff
	// locked records each row lock and whether it was taken inside a tx
	locked []lockCall
}

type lockCall struct {
	staffID string
	inTx    bool
}

func newMockStaffRepo(list ...staff.Staff) *mockStaffRepo {
	m := &mockStaffRepo{staff: make(map[string]staff.Staff)}
	for _, s := range list {
		m.staff[s.ID] = s
	}
	return m
}

func (m *mockStaffRepo) GetByID(_ context.Context, id string) (staff.Staff, error) {
	if s, ok := m.staff[id]; ok {
		return s, nil
	}
	return staff.Staff{}, staff.ErrStaffNotFound
}

func (m *mockStaffRepo) GetByIDForUpdate(ctx context.Context, id string) (staff.Staff, error) {
	m.locked = append(m.locked, lockCall{staffID: id, inTx: inMockTx(ctx)})
	return m.GetByID(ctx, id)
}

func (m *mockStaffRepo) ListEnabled(_ context.Context) ([]staff.Staff, error) {
	var out []staff.Staff
	for _, s := range m.staff {
		if s.Enabled {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Mock WarningNotifier ──

type notifyCall struct {
	staffID string
	groups  []attendance.DuplicateGroup
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (m *mockNotifier) NotifyDuplicates(_ context.Context, staffID string, groups []attendance.DuplicateGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notifyCall{staffID: staffID, groups: groups})
}

// ── Mock Transactor ──

type mockTxKey struct{}

type mockTransactor struct {
	calls int
}

func (m *mockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(context.WithValue(ctx, mockTxKey{}, true))
}

func inMockTx(ctx context.Context) bool {
	inTx, _ := ctx.Value(mockTxKey{}).(bool)
	return inTx
}

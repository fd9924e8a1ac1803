package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/reconcile"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Delete strategies
const (
	StrategyBestEffort = "best_effort"
	StrategyAtomic     = "atomic"
)

type Config struct {
	Strategy       string        // default: best_effort
	DeleteMaxTries uint          // default: 3
	InitialBackoff time.Duration // default: 200ms
}

type sessionEntry struct {
	mu      sync.Mutex
	session *reconcile.Session
}

type ReconcileServiceImpl struct {
	tx            database.Transactor
	repo          attendance.AttendanceRepository
	notifications notification.Service
	config        Config
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// Open implements reconcile.Service.
func (r *ReconcileServiceImpl) Open(ctx context.Context, req reconcile.OpenRequest) (reconcile.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return reconcile.SessionResponse{}, err
	}

	session := reconcile.NewSession(uuid.New().String(), req.StaffID, req.WorkDate, r.now())
	entry := &sessionEntry{session: session}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	r.mu.Lock()
	r.sessions[session.ID] = entry
	r.mu.Unlock()

	candidates, failures := r.fetchCandidates(ctx, req.StaffID, uniqueIDs(req.IDs))

	// the caller went away while fetching; discard instead of publishing a session
	if err := ctx.Err(); err != nil {
		r.remove(session.ID)
		return reconcile.SessionResponse{}, err
	}

	if err := session.FinishLoading(candidates, failures, r.now()); err != nil {
		r.remove(session.ID)
		return reconcile.SessionResponse{}, err
	}

	slog.Info("reconciliation session opened",
		"session_id", session.ID,
		"staff_id", req.StaffID,
		"work_date", req.WorkDate,
		"candidates", len(candidates),
		"fetch_failures", len(failures),
	)

	return reconcile.ToResponse(session), nil
}

// fetchCandidates loads every record concurrently and waits for all of them.
// A failed fetch never cancels the others.
func (r *ReconcileServiceImpl) fetchCandidates(ctx context.Context, staffID string, ids []string) ([]attendance.Attendance, []reconcile.FetchFailure) {
	records := make([]*attendance.Attendance, len(ids))
	errs := make([]error, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			rec, err := r.repo.GetByID(ctx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			if rec.StaffID != staffID {
				errs[i] = fmt.Errorf("record belongs to staff %s", rec.StaffID)
				return nil
			}
			records[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	candidates := make([]attendance.Attendance, 0, len(ids))
	failures := make([]reconcile.FetchFailure, 0)
	for i, id := range ids {
		if errs[i] != nil {
			slog.Warn("failed to fetch reconciliation candidate", "id", id, "staff_id", staffID, "error", errs[i])
			failures = append(failures, reconcile.FetchFailure{ID: id, Error: errs[i].Error()})
			continue
		}
		candidates = append(candidates, *records[i])
	}

	sortCandidates(candidates)
	return candidates, failures
}

// sortCandidates orders by work date then start time, records without a
// start time first, ties broken by ID.
func sortCandidates(c []attendance.Attendance) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].WorkDate != c[j].WorkDate {
			return c[i].WorkDate < c[j].WorkDate
		}
		si, sj := c[i].StartTime, c[j].StartTime
		switch {
		case si == nil && sj != nil:
			return true
		case si != nil && sj == nil:
			return false
		case si != nil && sj != nil && !si.Equal(*sj):
			return si.Before(*sj)
		}
		return c[i].ID < c[j].ID
	})
}

// Get implements reconcile.Service.
func (r *ReconcileServiceImpl) Get(_ context.Context, sessionID string) (reconcile.SessionResponse, error) {
	var resp reconcile.SessionResponse
	err := r.withSession(sessionID, func(s *reconcile.Session) error {
		resp = reconcile.ToResponse(s)
		return nil
	})
	return resp, err
}

// SetMode implements reconcile.Service.
func (r *ReconcileServiceImpl) SetMode(_ context.Context, sessionID string, req reconcile.SetModeRequest) (reconcile.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return reconcile.SessionResponse{}, err
	}
	var resp reconcile.SessionResponse
	err := r.withSession(sessionID, func(s *reconcile.Session) error {
		if err := s.SetMode(req.Mode, r.now()); err != nil {
			return err
		}
		resp = reconcile.ToResponse(s)
		return nil
	})
	return resp, err
}

// SelectRecord implements reconcile.Service.
func (r *ReconcileServiceImpl) SelectRecord(_ context.Context, sessionID string, req reconcile.SelectRecordRequest) (reconcile.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return reconcile.SessionResponse{}, err
	}
	var resp reconcile.SessionResponse
	err := r.withSession(sessionID, func(s *reconcile.Session) error {
		if err := s.SelectRecord(req.RecordID, r.now()); err != nil {
			return err
		}
		resp = reconcile.ToResponse(s)
		return nil
	})
	return resp, err
}

// SelectField implements reconcile.Service.
func (r *ReconcileServiceImpl) SelectField(_ context.Context, sessionID string, req reconcile.FieldSelection) (reconcile.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return reconcile.SessionResponse{}, err
	}
	var resp reconcile.SessionResponse
	err := r.withSession(sessionID, func(s *reconcile.Session) error {
		if err := s.SelectField(req, r.now()); err != nil {
			return err
		}
		resp = reconcile.ToResponse(s)
		return nil
	})
	return resp, err
}

// Resolve implements reconcile.Service.
func (r *ReconcileServiceImpl) Resolve(ctx context.Context, sessionID string, req reconcile.ResolveRequest) (reconcile.ResolveResult, error) {
	var (
		toDelete []string
		session  *reconcile.Session
		keptID   string
	)
	err := r.withSession(sessionID, func(s *reconcile.Session) error {
		ids, err := s.BeginDeleting(req.Confirm, r.now())
		if err != nil {
			return err
		}
		toDelete, session, keptID = ids, s, s.SelectedRecordID
		return nil
	})
	if err != nil {
		return reconcile.ResolveResult{}, err
	}

	// deletes run to completion even if the caller disconnects
	deleteCtx := context.WithoutCancel(ctx)

	var (
		deleted  []string
		failures []reconcile.DeleteFailure
	)
	if r.config.Strategy == StrategyAtomic {
		deleted, err = r.deleteAtomic(deleteCtx, toDelete)
	} else {
		deleted, failures = r.deleteBestEffort(deleteCtx, toDelete)
	}

	r.mu.Lock()
	entry, live := r.sessions[sessionID]
	r.mu.Unlock()

	result := reconcile.ResolveResult{
		KeptID:     keptID,
		DeletedIDs: nonNilIDs(deleted),
		Failures:   failures,
		Remaining:  1 + len(toDelete) - len(deleted),
	}
	if result.Failures == nil {
		result.Failures = []reconcile.DeleteFailure{}
	}

	if live {
		entry.mu.Lock()
		if session.State == reconcile.StateDeleting {
			session.FinishDeleting(deleted, r.now())
		}
		result.Remaining = len(session.Candidates)
		result.Session = reconcile.ToResponse(session)
		entry.mu.Unlock()
	}

	for _, f := range failures {
		r.publish(deleteCtx, notification.EventReconcileFailed, "Failed to delete a duplicate attendance record.", map[string]string{
			"session_id": sessionID,
			"id":         f.ID,
			"staff_id":   session.StaffID,
			"work_date":  session.WorkDate,
			"error":      f.Error,
		})
	}

	if err != nil {
		slog.Error("reconciliation rolled back",
			"session_id", sessionID,
			"staff_id", session.StaffID,
			"work_date", session.WorkDate,
			"error", err,
		)
		r.publish(deleteCtx, notification.EventReconcileFailed, reconcile.ErrResolveRolledBack.Error(), map[string]string{
			"session_id": sessionID,
			"staff_id":   session.StaffID,
			"work_date":  session.WorkDate,
			"error":      err.Error(),
		})
		return result, fmt.Errorf("%w: %v", reconcile.ErrResolveRolledBack, err)
	}

	slog.Info("reconciliation resolved",
		"session_id", sessionID,
		"staff_id", session.StaffID,
		"work_date", session.WorkDate,
		"kept_id", keptID,
		"deleted", len(deleted),
		"failed", len(failures),
	)
	r.publish(deleteCtx, notification.EventReconcileCompleted, "Duplicate attendance records reconciled.", map[string]interface{}{
		"session_id":  sessionID,
		"staff_id":    session.StaffID,
		"work_date":   session.WorkDate,
		"kept_id":     keptID,
		"deleted_ids": result.DeletedIDs,
		"failed":      len(failures),
	})

	return result, nil
}

// deleteBestEffort deletes one record at a time, retrying each with
// exponential backoff. A failure does not stop the remaining deletes.
func (r *ReconcileServiceImpl) deleteBestEffort(ctx context.Context, ids []string) ([]string, []reconcile.DeleteFailure) {
	var (
		deleted  []string
		failures []reconcile.DeleteFailure
	)
	for _, id := range ids {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = r.config.InitialBackoff

		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			err := r.repo.Delete(ctx, id)
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return struct{}{}, nil
			}
			return struct{}{}, err
		},
			backoff.WithBackOff(b),
			backoff.WithMaxTries(r.config.DeleteMaxTries),
			backoff.WithNotify(func(err error, next time.Duration) {
				slog.Warn("retrying attendance delete", "id", id, "retry_in", next, "error", err)
			}),
		)
		if err != nil {
			slog.Error("failed to delete duplicate attendance", "id", id, "error", err)
			failures = append(failures, reconcile.DeleteFailure{ID: id, Error: err.Error()})
			continue
		}
		deleted = append(deleted, id)
	}
	return deleted, failures
}

// deleteAtomic deletes every record in one transaction.
func (r *ReconcileServiceImpl) deleteAtomic(ctx context.Context, ids []string) ([]string, error) {
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if err := r.repo.Delete(ctx, id); err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
				return fmt.Errorf("delete %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close implements reconcile.Service.
func (r *ReconcileServiceImpl) Close(_ context.Context, sessionID string) error {
	return r.withSession(sessionID, func(s *reconcile.Session) error {
		if s.State == reconcile.StateDeleting {
			return reconcile.ErrInvalidState
		}
		s.Close(r.now())
		r.remove(sessionID)
		return nil
	})
}

// Sweep implements reconcile.Service. Sessions that are deleting are kept.
func (r *ReconcileServiceImpl) Sweep(_ context.Context, ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	entries := make(map[string]*sessionEntry, len(r.sessions))
	for id, e := range r.sessions {
		entries[id] = e
	}
	r.mu.Unlock()

	closed := 0
	for id, e := range entries {
		if !e.mu.TryLock() {
			continue
		}
		s := e.session
		if s.State != reconcile.StateDeleting && s.UpdatedAt.Before(cutoff) {
			s.Close(r.now())
			r.remove(id)
			closed++
		}
		e.mu.Unlock()
	}
	return closed
}

// withSession runs fn under the session's lock. Lock order is session then
// registry; r.mu is never held while waiting for a session.
func (r *ReconcileServiceImpl) withSession(sessionID string, fn func(s *reconcile.Session) error) error {
	r.mu.Lock()
	entry, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return reconcile.ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session.State == reconcile.StateClosed {
		return reconcile.ErrSessionNotFound
	}
	return fn(entry.session)
}

func (r *ReconcileServiceImpl) remove(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

func (r *ReconcileServiceImpl) publish(ctx context.Context, event, message string, detail interface{}) {
	err := r.notifications.Publish(ctx, notification.Message{
		Topic:   notification.TopicReconciliation,
		Event:   event,
		Message: message,
		Detail:  detail,
	})
	if err != nil {
		slog.Error("failed to publish reconciliation notification", "event", event, "error", err)
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func NewReconcileService(
	tx database.Transactor,
	repo attendance.AttendanceRepository,
	notifications notification.Service,
	cfg Config,
) reconcile.Service {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyBestEffort
	}
	if cfg.DeleteMaxTries == 0 {
		cfg.DeleteMaxTries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	return &ReconcileServiceImpl{
		tx:            tx,
		repo:          repo,
		notifications: notifications,
		config:        cfg,
		now:           time.Now,
		sessions:      make(map[string]*sessionEntry),
	}
}

package reconcile

import (
	"context"
	"time"
)

type Service interface {
	Open(ctx context.Context, req OpenRequest) (SessionResponse, error)
	Get(ctx context.Context, sessionID string) (SessionResponse, error)
	SetMode(ctx context.Context, sessionID string, req SetModeRequest) (SessionResponse, error)
	SelectRecord(ctx context.Context, sessionID string, req SelectRecordRequest) (SessionResponse, error)
	SelectField(ctx context.Context, sessionID string, req FieldSelection) (SessionResponse, error)
	Resolve(ctx context.Context, sessionID string, req ResolveRequest) (ResolveResult, error)
	Close(ctx context.Context, sessionID string) error
	// Sweep closes sessions idle for longer than ttl and returns how many.
	Sweep(ctx context.Context, ttl time.Duration) int
}

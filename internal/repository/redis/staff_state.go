package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
	goredis "github.com/redis/go-redis/v9"
)

const staffStatePrefix = "roster:staff:"

type staffStateStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func staffStateKey(staffID string) string {
	return staffStatePrefix + staffID
}

// Get implements roster.StateStore.
func (s *staffStateStore) Get(ctx context.Context, staffID string) (roster.StaffState, error) {
	raw, err := s.rdb.Get(ctx, staffStateKey(staffID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return roster.StaffState{}, roster.ErrStateNotFound
		}
		return roster.StaffState{}, fmt.Errorf("failed to get staff state: %w", err)
	}

	var state roster.StaffState
	if err := json.Unmarshal(raw, &state); err != nil {
		return roster.StaffState{}, fmt.Errorf("failed to decode staff state: %w", err)
	}
	return state, nil
}

// Set implements roster.StateStore.
func (s *staffStateStore) Set(ctx context.Context, staffID string, state roster.StaffState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode staff state: %w", err)
	}
	if err := s.rdb.Set(ctx, staffStateKey(staffID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set staff state: %w", err)
	}
	return nil
}

// Clear implements roster.StateStore.
func (s *staffStateStore) Clear(ctx context.Context, staffID string) error {
	if err := s.rdb.Del(ctx, staffStateKey(staffID)).Err(); err != nil {
		return fmt.Errorf("failed to clear staff state: %w", err)
	}
	return nil
}

// ClearAll implements roster.StateStore.
func (s *staffStateStore) ClearAll(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear staff states: %w", err)
	}
	return nil
}

// List implements roster.StateStore. States are ordered by staff name.
func (s *staffStateStore) List(ctx context.Context) ([]roster.StaffState, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]roster.StaffState, 0, len(keys))
	if len(keys) == 0 {
		return states, nil
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list staff states: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		var state roster.StaffState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("failed to decode staff state: %w", err)
		}
		states = append(states, state)
	}

	sortStates(states)
	return states, nil
}

func (s *staffStateStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, staffStatePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan staff state keys: %w", err)
	}
	return keys, nil
}

func sortStates(states []roster.StaffState) {
	sort.Slice(states, func(i, j int) bool {
		if states[i].StaffName != states[j].StaffName {
			return states[i].StaffName < states[j].StaffName
		}
		return states[i].StaffID < states[j].StaffID
	})
}

func NewStaffStateStore(rdb *goredis.Client, ttl time.Duration) roster.StateStore {
	return &staffStateStore{rdb: rdb, ttl: ttl}
}

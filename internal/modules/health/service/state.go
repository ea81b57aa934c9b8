package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastIngestUnix atomic.Int64 // unix seconds
	lastSyncUnix   atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) TouchIngest(t time.Time) { s.lastIngestUnix.Store(t.Unix()) }
func (s *State) TouchSync(t time.Time)   { s.lastSyncUnix.Store(t.Unix()) }

func (s *State) LastIngest() time.Time { return fromUnix(s.lastIngestUnix.Load()) }
func (s *State) LastSync() time.Time   { return fromUnix(s.lastSyncUnix.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

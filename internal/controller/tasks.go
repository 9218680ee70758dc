package controller

import (
	"context"
	"sync"
)

const (
	keyLoad       = "load"
	keyBulkStatus = "bulk:status"
	keyBulkDelete = "bulk:delete"
)

// taskSet tracks at most one in-flight task per key. Starting a task for a key
// cancels the previous one.
type taskSet struct {
	mu      sync.Mutex
	running map[string]*task
}

type task struct {
	cancel context.CancelFunc
}

func newTaskSet() *taskSet {
	return &taskSet{running: make(map[string]*task)}
}

// start returns the context the task must run under and a func to call when
// the task is finished.
func (s *taskSet) start(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	t := &task{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.running[key]; ok {
		prev.cancel()
	}
	s.running[key] = t
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.running[key] == t {
			delete(s.running, key)
		}
		s.mu.Unlock()
		cancel()
	}
}

// inFlight reports whether a task is running under key.
func (s *taskSet) inFlight(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[key]
	return ok
}

func (s *taskSet) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.running {
		t.cancel()
		delete(s.running, key)
	}
}

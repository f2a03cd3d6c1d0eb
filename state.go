package resloader

import (
	"slices"
	"sync"
)

// loaderState tracks every id a Loader has seen.
// Each terminal transition is one locked write, so an id is never
// visible in both sets and never leaves the set it entered.
type loaderState struct {
	mu          sync.Mutex
	attempting  map[string]struct{}
	loaded      map[string]struct{}
	failed      map[string]error
	loadedOrder []string
	failedOrder []string
}

func newLoaderState() *loaderState {
	return &loaderState{
		attempting: make(map[string]struct{}),
		loaded:     make(map[string]struct{}),
		failed:     make(map[string]error),
	}
}

// terminal reports whether id reached a terminal state, and its recorded
// error when that state is failed.
func (s *loaderState) terminal(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loaded[id]; ok {
		return true, nil
	}
	if err, ok := s.failed[id]; ok {
		return true, err
	}
	return false, nil
}

// begin marks id as attempting. Returns false if id is already terminal.
func (s *loaderState) begin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isTerminal(id) {
		return false
	}
	s.attempting[id] = struct{}{}
	return true
}

// abort clears the attempting mark without a terminal transition.
func (s *loaderState) abort(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempting, id)
}

// markLoaded moves id to loaded. Returns false if id was already terminal.
func (s *loaderState) markLoaded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isTerminal(id) {
		return false
	}
	delete(s.attempting, id)
	s.loaded[id] = struct{}{}
	s.loadedOrder = append(s.loadedOrder, id)
	return true
}

// markFailed moves id to failed with its terminal error.
// Returns false if id was already terminal.
func (s *loaderState) markFailed(id string, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isTerminal(id) {
		return false
	}
	delete(s.attempting, id)
	s.failed[id] = err
	s.failedOrder = append(s.failedOrder, id)
	return true
}

// state returns the current state of id.
func (s *loaderState) state(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.hasLoaded(id):
		return StateLoaded
	case s.hasFailed(id):
		return StateFailed
	case s.isAttempting(id):
		return StateAttempting
	default:
		return StateNotAttempted
	}
}

// report snapshots both sets. Slices are never nil.
func (s *loaderState) report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := slices.Clone(s.loadedOrder)
	if loaded == nil {
		loaded = []string{}
	}
	failed := slices.Clone(s.failedOrder)
	if failed == nil {
		failed = []string{}
	}

	return Report{
		Loaded: loaded,
		Failed: failed,
		Total:  len(loaded) + len(failed),
	}
}

// Helpers below expect s.mu to be held.

func (s *loaderState) isTerminal(id string) bool {
	return s.hasLoaded(id) || s.hasFailed(id)
}

func (s *loaderState) hasLoaded(id string) bool {
	_, ok := s.loaded[id]
	return ok
}

func (s *loaderState) hasFailed(id string) bool {
	_, ok := s.failed[id]
	return ok
}

func (s *loaderState) isAttempting(id string) bool {
	_, ok := s.attempting[id]
	return ok
}

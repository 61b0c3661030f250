package session

import "sync"

type EvalMode struct {
	mu    sync.Mutex
	users map[string]struct{}
}

func NewEvalMode() *EvalMode {
	return &EvalMode{users: make(map[string]struct{})}
}

// Toggle flips the user's mode and returns the new state.
func (e *EvalMode) Toggle(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.users[userID]; ok {
		delete(e.users, userID)
		return false
	}
	e.users[userID] = struct{}{}
	return true
}

// Exit reports whether the user was in eval mode.
func (e *EvalMode) Exit(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.users[userID]
	delete(e.users, userID)
	return ok
}

func (e *EvalMode) Active(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.users[userID]
	return ok
}

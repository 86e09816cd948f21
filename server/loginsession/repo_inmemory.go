package loginsession

import (
	"fmt"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps sessions per tenant in process memory.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Session // tenant -> sessionID -> Session
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]map[string]Session),
	}
}

func (r *InMemoryRepo) Upsert(tenantDomainName, sessionID string, session Session) error {
	if err := checkKeys(tenantDomainName, sessionID); err != nil {
		return fmt.Errorf("[InMemoryRepo Upsert] %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[tenantDomainName]; !ok {
		r.sessions[tenantDomainName] = make(map[string]Session)
	}
	r.sessions[tenantDomainName][sessionID] = session
	return nil
}

func (r *InMemoryRepo) Get(tenantDomainName, sessionID string) (Session, error) {
	if err := checkKeys(tenantDomainName, sessionID); err != nil {
		return Session{}, fmt.Errorf("[InMemoryRepo Get] %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[tenantDomainName][sessionID]
	if !ok {
		return Session{}, fmt.Errorf("[InMemoryRepo Get] %w", ErrNotFound)
	}
	return session, nil
}

func (r *InMemoryRepo) Delete(tenantDomainName, sessionID string) error {
	if err := checkKeys(tenantDomainName, sessionID); err != nil {
		return fmt.Errorf("[InMemoryRepo Delete] %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tenantSessions, ok := r.sessions[tenantDomainName]
	if !ok {
		return nil
	}
	delete(tenantSessions, sessionID)
	if len(tenantSessions) == 0 {
		delete(r.sessions, tenantDomainName)
	}
	return nil
}

func checkKeys(tenantDomainName, sessionID string) error {
	if tenantDomainName == "" {
		return fmt.Errorf("tenant domain name is required")
	}
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}

package workflow

import (
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
)

// SessionStore owns the live form sessions, keyed by session ID. Each
// session has a single logical owner (the open form); With serializes
// mutations so a recomputation cascade is atomic with respect to later
// input events, mirroring the one-event-at-a-time delivery of the UI.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.FormSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.FormSession),
	}
}

// Create materializes a new session from the registry and registers it.
func (st *SessionStore) Create(reg *models.FormSchemaRegistry) (*models.FormSession, error) {
	s, err := models.NewFormSession(reg, time.Now())
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s, nil
}

// Adopt registers an externally built session (a draft rehydration).
func (st *SessionStore) Adopt(s *models.FormSession) {
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

// With runs fn against the named session while holding the store lock.
func (st *SessionStore) With(id string, fn func(*models.FormSession) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	return fn(s)
}

// Delete discards a session. Discarding an unknown session is not an error;
// the form may already have been navigated away from.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

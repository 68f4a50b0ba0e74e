package memory

import (
	"sync"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

// Repository keeps the current session and the most recent standings
// snapshot. Both are replaced wholesale, never modified in place.
type Repository struct {
	session  *models.Session
	snapshot *models.Snapshot
	mu       sync.RWMutex
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) SaveSession(session *models.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = session
}

func (r *Repository) GetSession() *models.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

// SaveSnapshotIf stores snapshot only when keep reports true for the currently
// stored one. The check and the write happen under the same lock.
func (r *Repository) SaveSnapshotIf(snapshot *models.Snapshot, keep func(current *models.Snapshot) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !keep(r.snapshot) {
		return false
	}
	r.snapshot = snapshot
	return true
}

func (r *Repository) GetSnapshot() *models.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

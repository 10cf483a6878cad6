package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	sessionContextTTL     = 24 * time.Hour
	sessionContextCleanup = 30 * time.Minute
)

type SessionContext struct {
	Key       string
	Context   string
	UpdatedAt time.Time
}

// SessionContextRepository keeps the doctor's free-text context per session,
// expiring after a day without writes.
type SessionContextRepository struct {
	cache *cache.Cache
}

func NewSessionContextRepository() *SessionContextRepository {
	return &SessionContextRepository{
		cache: cache.New(sessionContextTTL, sessionContextCleanup),
	}
}

func (r *SessionContextRepository) Save(sc *SessionContext) {
	r.cache.Set(sc.Key, sc, cache.DefaultExpiration)
}

func (r *SessionContextRepository) Get(key string) (*SessionContext, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(*SessionContext), true
	}
	return nil, false
}

func (r *SessionContextRepository) Delete(key string) {
	r.cache.Delete(key)
}

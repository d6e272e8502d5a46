package memory

import (
	"time"

	"ai-docchat-be/pkg/chat/session"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps one live chat engine per user. Idle engines are
// evicted after the TTL and closed so their in-flight work is cancelled.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	c := cache.New(ttl, 10*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if eng, ok := v.(*session.Engine); ok {
			eng.Close()
		}
	})
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(userId string, eng *session.Engine) {
	r.cache.Set(userId, eng, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(userId string) (*session.Engine, bool) {
	if x, found := r.cache.Get(userId); found {
		return x.(*session.Engine), true
	}
	return nil, false
}

// Touch resets the TTL for an active engine.
func (r *SessionRepository) Touch(userId string) {
	if x, found := r.cache.Get(userId); found {
		r.cache.Set(userId, x, cache.DefaultExpiration)
	}
}

// Range calls fn for every live engine. Used for company-wide catalog pushes.
func (r *SessionRepository) Range(fn func(userId string, eng *session.Engine)) {
	for key, item := range r.cache.Items() {
		if eng, ok := item.Object.(*session.Engine); ok {
			fn(key, eng)
		}
	}
}

// Delete removes the engine; the eviction hook closes it.
func (r *SessionRepository) Delete(userId string) {
	r.cache.Delete(userId)
}

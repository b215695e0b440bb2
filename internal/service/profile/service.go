package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CookieName carries the browser profile id between requests.
const CookieName = "inkblot_profile"

// Service issues and recognises anonymous browser profile ids. A profile id
// is what the cart reference is keyed by, so it must outlive the remote cart.
type Service struct {
	ttl time.Duration
}

func New(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{ttl: ttl}
}

// Issue returns a fresh random profile id.
func (s *Service) Issue() string {
	return uuid.NewString()
}

// Recognise returns the canonical form of id, or false when id is not a
// v4 UUID. Ids are not tracked server side, so any v4 UUID is accepted.
func (s *Service) Recognise(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 4 {
		return "", false
	}
	return parsed.String(), true
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}

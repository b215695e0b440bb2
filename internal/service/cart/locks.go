package cart

import (
	"context"
	"sync"

	"inkblot-storefront/internal/domain"
)

// profileLocks serialises cart mutations per profile. Entries are removed
// once nobody holds or waits on them.
type profileLocks struct {
	mu    sync.Mutex
	locks map[string]*profileLock
}

type profileLock struct {
	slot  chan struct{}
	users int
}

func newProfileLocks() *profileLocks {
	return &profileLocks{locks: make(map[string]*profileLock)}
}

func (p *profileLocks) acquire(ctx context.Context, profileID string, wait bool) (func(), error) {
	p.mu.Lock()
	l, ok := p.locks[profileID]
	if !ok {
		l = &profileLock{slot: make(chan struct{}, 1)}
		p.locks[profileID] = l
	}
	l.users++
	p.mu.Unlock()

	if wait {
		select {
		case l.slot <- struct{}{}:
		case <-ctx.Done():
			p.done(profileID, l)
			return nil, ctx.Err()
		}
	} else {
		select {
		case l.slot <- struct{}{}:
		default:
			p.done(profileID, l)
			return nil, domain.ErrBusy
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.slot
			p.done(profileID, l)
		})
	}, nil
}

func (p *profileLocks) done(profileID string, l *profileLock) {
	p.mu.Lock()
	l.users--
	if l.users == 0 {
		delete(p.locks, profileID)
	}
	p.mu.Unlock()
}

func (p *profileLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}

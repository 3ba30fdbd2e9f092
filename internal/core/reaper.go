package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultGracePeriod is how long an empty room survives before deletion,
// absorbing brief reconnect churn such as a page reload.
const DefaultGracePeriod = 5 * time.Minute

// Reaper schedules deferred deletion of rooms whose member set dropped to
// zero. It implements RoomLifecycle: the room store notifies it at every
// member-count transition, under the room's lock, so timers are armed and
// cancelled in the same order the transitions happened. Deletion is still
// re-validated at fire time via DeleteIfEmpty.
type Reaper struct {
	store *RoomStore
	grace time.Duration
	log   *zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewReaper constructs a reaper. grace <= 0 deletes empty rooms as soon as
// the zero-duration timer fires.
func NewReaper(store *RoomStore, grace time.Duration, logger *zerolog.Logger) *Reaper {
	if grace < 0 {
		grace = 0
	}
	return &Reaper{
		store:  store,
		grace:  grace,
		log:    logger,
		timers: make(map[string]*time.Timer),
	}
}

// RoomEmptied arms the deletion timer for a room that just lost its last
// member. Re-arming an already armed room is a no-op. The store calls this
// while holding the room's lock, so deletion always goes through the timer
// and never touches the store inline.
func (p *Reaper) RoomEmptied(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if _, armed := p.timers[roomID]; armed {
		return
	}
	p.timers[roomID] = time.AfterFunc(p.grace, func() {
		p.fire(roomID)
	})
	p.log.Debug().Str("room_id", roomID).Dur("grace", p.grace).Msg("room empty, deletion scheduled")
}

// RoomOccupied cancels a pending deletion because someone joined. The room
// keeps its prior history; nothing was deleted, so nothing is notified.
func (p *Reaper) RoomOccupied(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if timer, armed := p.timers[roomID]; armed {
		timer.Stop()
		delete(p.timers, roomID)
		p.log.Debug().Str("room_id", roomID).Msg("room deletion cancelled")
	}
}

func (p *Reaper) fire(roomID string) {
	p.mu.Lock()
	delete(p.timers, roomID)
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}

	if p.store.DeleteIfEmpty(roomID) {
		p.log.Info().Str("room_id", roomID).Msg("empty room deleted after grace period")
	}
}

// Stop cancels all pending deletions. Used at shutdown.
func (p *Reaper) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for roomID, timer := range p.timers {
		timer.Stop()
		delete(p.timers, roomID)
	}
}

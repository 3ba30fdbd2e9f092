package core

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/chatrelay/internal/utils"
)

const (
	// DefaultHistoryLimit caps per-room in-memory history.
	DefaultHistoryLimit = 500

	defaultRoomName = "New Room"
	maxRoomNameLen  = 64
	maxRoomDescLen  = 256
)

// RoomSnapshot is what a joiner receives: room metadata plus the retained
// message history at join time.
type RoomSnapshot struct {
	Info    *RoomInfo
	History []Message
}

// RoomLifecycle observes member-count transitions. The store invokes it
// while holding the room's lock, so notifications are strictly ordered with
// the membership changes that caused them. Implementations must not call
// back into the store synchronously.
type RoomLifecycle interface {
	// RoomEmptied fires when a room loses its last member.
	RoomEmptied(roomID string)
	// RoomOccupied fires when a connection joins a room it was not in.
	RoomOccupied(roomID string)
}

// RoomStore owns the set of rooms. The store-level lock only guards the
// room table; per-room mutation is serialized by each room's own mutex, so
// operations against different rooms never contend.
type RoomStore struct {
	mu           sync.RWMutex
	rooms        map[string]*Room
	historyLimit int
	lifecycle    RoomLifecycle
}

// NewRoomStore constructs an empty room store. historyLimit <= 0 disables
// history retention entirely.
func NewRoomStore(historyLimit int) *RoomStore {
	return &RoomStore{
		rooms:        make(map[string]*Room),
		historyLimit: historyLimit,
	}
}

// SetLifecycle installs the transition observer. Must be called before the
// store is shared between goroutines.
func (s *RoomStore) SetLifecycle(l RoomLifecycle) {
	s.lifecycle = l
}

// CreateRoom generates a fresh room and inserts the creator as its first
// member. A blank name is replaced with a generated default rather than
// rejected; an oversized name is a user error.
func (s *RoomStore) CreateRoom(name, description string, private bool, creator Identity, creatorConnID string) (*RoomInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultRoomName
	}
	if len(name) > maxRoomNameLen {
		return nil, ErrNameTooLong
	}
	if len(description) > maxRoomDescLen {
		description = description[:maxRoomDescLen]
	}

	room := newRoom(uuid.NewString(), name, description, private, creator)
	room.members[creatorConnID] = struct{}{}
	info := room.info() // snapshot before the room is visible to others

	s.mu.Lock()
	s.rooms[room.id] = room
	s.mu.Unlock()

	return info, nil
}

// lookup fetches a live room by id.
func (s *RoomStore) lookup(roomID string) (*Room, error) {
	s.mu.RLock()
	room, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// GetRoom returns current metadata for a room.
func (s *RoomStore) GetRoom(roomID string) (*RoomInfo, error) {
	room, err := s.lookup(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted {
		return nil, ErrRoomNotFound
	}
	return room.info(), nil
}

// ListRooms returns summaries of all rooms ordered by creation time
// ascending. Summaries expose member counts, never member ids.
func (s *RoomStore) ListRooms() []RoomSummary {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		if !room.deleted {
			summaries = append(summaries, room.summary())
		}
		room.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// Join adds the connection to the member set and returns the room snapshot.
// Joining a room you are already in is a no-op that still returns the
// snapshot; alreadyMember tells the caller to skip presence fan-out.
func (s *RoomStore) Join(roomID, connID string) (snapshot *RoomSnapshot, others []string, alreadyMember bool, err error) {
	room, err := s.lookup(roomID)
	if err != nil {
		return nil, nil, false, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted {
		return nil, nil, false, ErrRoomNotFound
	}

	_, alreadyMember = room.members[connID]
	if !alreadyMember {
		room.members[connID] = struct{}{}
		if s.lifecycle != nil {
			s.lifecycle.RoomOccupied(roomID)
		}
	}

	others = make([]string, 0, len(room.members)-1)
	for id := range room.members {
		if id != connID {
			others = append(others, id)
		}
	}

	return &RoomSnapshot{Info: room.info(), History: room.historyCopy()}, others, alreadyMember, nil
}

// Leave removes the connection from the member set. Leaving a room you are
// not in is a no-op. remaining is the member set after removal, captured
// atomically so presence fan-out matches the commit.
func (s *RoomStore) Leave(roomID, connID string) (memberCount int, wasMember bool, remaining []string, err error) {
	room, err := s.lookup(roomID)
	if err != nil {
		return 0, false, nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted {
		return 0, false, nil, ErrRoomNotFound
	}

	_, wasMember = room.members[connID]
	if wasMember {
		delete(room.members, connID)
		if len(room.members) == 0 && s.lifecycle != nil {
			s.lifecycle.RoomEmptied(roomID)
		}
	}
	return len(room.members), wasMember, room.memberIDs(), nil
}

// AppendMessage validates and appends a message, returning the member set
// at the moment the append committed. Sends from non-members are rejected,
// not silently dropped.
func (s *RoomStore) AppendMessage(roomID string, sender Identity, senderConnID, text string) (*Message, []string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, ErrEmptyContent
	}

	room, err := s.lookup(roomID)
	if err != nil {
		return nil, nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted {
		return nil, nil, ErrRoomNotFound
	}
	if _, ok := room.members[senderConnID]; !ok {
		return nil, nil, ErrNotAMember
	}

	msg := Message{
		ID:        utils.MessageID(),
		RoomID:    roomID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now(),
	}
	room.append(msg, s.historyLimit)

	return &msg, room.memberIDs(), nil
}

// DeleteRoom removes the room and discards its history. Idempotent; the
// room id is never reused.
func (s *RoomStore) DeleteRoom(roomID string) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	delete(s.rooms, roomID)
	s.mu.Unlock()
	if !ok {
		return
	}

	room.mu.Lock()
	room.deleted = true
	room.history = nil
	room.mu.Unlock()
}

// DeleteIfEmpty deletes the room only if its member set is still empty,
// re-checking under the room lock so a rejoin racing the reaper's timer
// always wins.
func (s *RoomStore) DeleteIfEmpty(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted || len(room.members) > 0 {
		return false
	}
	room.deleted = true
	room.history = nil
	delete(s.rooms, roomID)
	return true
}

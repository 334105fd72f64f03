package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/warpgraph/warpengine/ident"
)

// NewSessionId mints a fresh SessionId for a new client connection —
// a debugger attaching to the engine, a CLI invocation, a replay
// client. Unlike every other identifier in this package, a SessionId
// is not a function of declared content: two sessions opened with
// identical arguments still get distinct ids, the same way a v4 UUID
// does. The random bytes are absorbed through the same domain-tagged
// hashing path as every other id so SessionId stays a plain 32-byte
// ident.Hash newtype rather than a special case in wire encodings.
func NewSessionId() ident.SessionId {
	raw := uuid.New()
	b, _ := raw.MarshalBinary()
	return ident.SessionId(ident.HashConcat(ident.TagNode, []byte("session\x00"), b))
}

// Cursor is a time-travel debugging handle: a session's pointer at one
// tick of one worldline. Advancing or rewinding a Cursor never mutates
// the Engine — it only changes which historical View a session reads
// through Engine.SeekSession.
type Cursor struct {
	Id          ident.CursorId
	SessionId   ident.SessionId
	WorldlineId ident.WorldlineId
	Tick        uint64
}

// CursorStore tracks live debugging cursors by SessionId, letting a
// CLI or RPC front end open a session, step its cursor forward and
// backward across committed ticks, and close it again. It holds no
// graph state itself — looking up the View at a cursor's tick is the
// caller's job, typically backed by a history of retained snapshots or
// a store capable of replaying from genesis.
type CursorStore struct {
	mu      sync.Mutex
	cursors map[ident.SessionId]*Cursor
}

// NewCursorStore returns an empty CursorStore.
func NewCursorStore() *CursorStore {
	return &CursorStore{cursors: make(map[ident.SessionId]*Cursor)}
}

// Open starts a new session at worldlineId, tick 0, and returns its
// Cursor.
func (s *CursorStore) Open(worldlineId ident.WorldlineId) *Cursor {
	sessionId := NewSessionId()
	c := &Cursor{
		Id:          ident.NewCursorId(sessionId, worldlineId, 0),
		SessionId:   sessionId,
		WorldlineId: worldlineId,
		Tick:        0,
	}
	s.mu.Lock()
	s.cursors[sessionId] = c
	s.mu.Unlock()
	return c
}

// Seek moves an open session's cursor to tick, recomputing CursorId.
// It returns false if sessionId has no open cursor.
func (s *CursorStore) Seek(sessionId ident.SessionId, tick uint64) (*Cursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[sessionId]
	if !ok {
		return nil, false
	}
	c.Tick = tick
	c.Id = ident.NewCursorId(sessionId, c.WorldlineId, tick)
	return c, true
}

// Close ends a session, discarding its cursor.
func (s *CursorStore) Close(sessionId ident.SessionId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, sessionId)
}

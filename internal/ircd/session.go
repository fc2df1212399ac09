package ircd

import (
	"net"
	"strings"
	"time"

	"github.com/ludirc/ludserver/internal/ircmsg"
)

// Session is per-connection state: identity, membership, write queue, and
// liveness timers.
type Session struct {
	Conn net.Conn

	RemoteHost string
	RemotePort int

	Nick     string
	User     string
	RealName string

	// Registered becomes true once NICK then USER have both completed.
	Registered bool

	// Channels holds the (canonical) names this session has joined. It is a
	// weak reference by name, not a direct handle, so channel destruction on
	// emptiness never leaves a dangling pointer.
	Channels map[string]struct{}

	queue []string

	LastActivity time.Time
	LastPingSent time.Time
	PingPending  bool

	framer ircmsg.Framer
}

// NewSession creates session state for a freshly accepted connection.
func NewSession(conn net.Conn, host string, port int) *Session {
	return &Session{
		Conn:         conn,
		RemoteHost:   host,
		RemotePort:   port,
		Channels:     make(map[string]struct{}),
		LastActivity: time.Now(),
	}
}

// Enqueue appends a line to the write queue. Idempotent and lossless: it
// never drops or reorders what's already queued.
func (s *Session) Enqueue(line string) {
	s.queue = append(s.queue, line)
}

// HasQueued reports whether Flush has anything to do.
func (s *Session) HasQueued() bool {
	return len(s.queue) > 0
}

// Flush concatenates every queued line and writes them as one contiguous
// send. On a transport error the caller is expected to detach the session.
func (s *Session) Flush() error {
	if len(s.queue) == 0 {
		return nil
	}

	var b strings.Builder
	for _, line := range s.queue {
		b.WriteString(line)
	}
	s.queue = s.queue[:0]

	_, err := s.Conn.Write([]byte(b.String()))
	return err
}

// PushBytes feeds freshly read bytes through the per-session line framer,
// returning whatever complete lines it can now extract.
func (s *Session) PushBytes(chunk []byte) ([]string, error) {
	return s.framer.Push(chunk)
}

// NickUhost renders the "nick!user@host" source used for client-originated
// broadcasts.
func (s *Session) NickUhost() string {
	return s.Nick + "!" + s.User + "@" + s.RemoteHost
}

// DisplayNick returns the session's nickname, or "*" before one is claimed,
// matching the convention used for numeric replies sent before registration.
func (s *Session) DisplayNick() string {
	if s.Nick == "" {
		return "*"
	}
	return s.Nick
}

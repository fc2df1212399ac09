package ircd

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/ludirc/ludserver/internal/logging"
)

// Config is the subset of startup configuration the event loop and
// dispatcher need.
type Config struct {
	ServerName string
	Port       int
	MOTD       string
	Version    string

	IdleBeforePing time.Duration
	PingTimeout    time.Duration
}

// incoming bundles a session with one already-framed protocol line, the unit
// of work the read goroutines hand to the single event-loop goroutine.
type incoming struct {
	sess *Session
	line string
}

// disconnectReason classifies why a session is being torn down, so the
// event loop knows whether it owes the client a reply before closing.
type disconnectReason int

const (
	disconnectClosed disconnectReason = iota
	disconnectBadEncoding
)

// deadSession reports that a session's connection failed (EOF, a transport
// error, or an encoding error) outside the event-loop goroutine.
type deadSession struct {
	sess   *Session
	reason disconnectReason
}

// Server ties the registry, dispatcher, and event loop together.
type Server struct {
	cfg      Config
	log      logging.Logger
	listener net.Listener

	reg  *Registry
	disp *Dispatcher

	newSessions chan *Session
	incomingCh  chan incoming
	deadCh      chan deadSession

	// sweepInterval is how often the event loop runs livenessSweep. It is
	// independent of IdleBeforePing/PingTimeout (which decide whether a given
	// sweep acts on a session), and defaults to 20s; tests shrink it to avoid
	// a slow suite.
	sweepInterval time.Duration
}

// NewServer builds a server bound to cfg. Call Serve to run it.
func NewServer(cfg Config, log logging.Logger) *Server {
	if log == nil {
		log = logging.Discard
	}
	reg := NewRegistry()
	return &Server{
		cfg:           cfg,
		log:           log,
		reg:           reg,
		disp:          NewDispatcher(reg, cfg.ServerName, cfg.Version, cfg.MOTD, log),
		newSessions:   make(chan *Session, 64),
		incomingCh:    make(chan incoming, 256),
		deadCh:        make(chan deadSession, 64),
		sweepInterval: 20 * time.Second,
	}
}

// Serve binds the listening socket and runs the event loop. It returns only
// when the bind fails: this core has no graceful-shutdown signal, and closing
// the listener stops new connections without ending the event loop.
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return errors.Wrapf(err, "binding port %d", s.cfg.Port)
	}
	s.listener = ln

	s.log.LogMsg(fmt.Sprintf("listening on port %d", s.cfg.Port))

	go s.acceptLoop()
	s.eventLoop()
	return nil
}

// Close stops accepting new connections. Existing sessions are left to the
// event loop's own liveness sweep and read-goroutine EOF handling.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.log.LogMsg(fmt.Sprintf("accept error, accept loop exiting: %s", err))
			return
		}

		host, port := splitHostPort(conn.RemoteAddr())
		sess := NewSession(conn, host, port)

		go s.readLoop(sess)

		s.newSessions <- sess
	}
}

// readLoop blocks on reads for one session's socket and funnels complete
// protocol lines to the event loop over incomingCh. The event loop never
// blocks on a read itself, so each session gets its own goroutine to block
// in instead. Apart from the session's inbound framer, which only this
// goroutine uses, only the event-loop goroutine ever touches registry or
// session state.
func (s *Server) readLoop(sess *Session) {
	buf := make([]byte, 1024)
	for {
		n, err := sess.Conn.Read(buf)
		if n > 0 {
			lines, pushErr := sess.PushBytes(buf[:n])
			for _, line := range lines {
				s.incomingCh <- incoming{sess: sess, line: line}
			}
			if pushErr != nil {
				s.deadCh <- deadSession{sess: sess, reason: disconnectBadEncoding}
				return
			}
		}
		if err != nil {
			s.deadCh <- deadSession{sess: sess, reason: disconnectClosed}
			return
		}
	}
}

// eventLoop is the single goroutine that owns the registry and every
// session's mutable state. Go's select over channels stands in for
// multiplexed socket readiness, and the ticker drives the periodic
// liveness sweep.
func (s *Server) eventLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case sess := <-s.newSessions:
			s.reg.Attach(sess)
			s.log.LogMsg(fmt.Sprintf("new connection from %s:%d", sess.RemoteHost, sess.RemotePort))

		case dead := <-s.deadCh:
			if _, stillKnown := s.lookupBySocket(dead.sess); stillKnown {
				if dead.reason == disconnectBadEncoding {
					line := replies{server: s.cfg.ServerName}.notRegistered(dead.sess.DisplayNick())
					dead.sess.Enqueue(line)
					s.log.LogOutgoing(dead.sess.RemoteHost, dead.sess.RemotePort, line)
					_ = dead.sess.Flush()
				}
				s.reg.Detach(dead.sess)
				s.log.LogMsg(fmt.Sprintf("%s:%d disconnected", dead.sess.RemoteHost, dead.sess.RemotePort))
			}

		case in := <-s.incomingCh:
			if _, stillKnown := s.lookupBySocket(in.sess); !stillKnown {
				continue
			}
			s.disp.Dispatch(in.sess, in.line)
			s.flushAll()

		case <-ticker.C:
			s.livenessSweep()
			s.flushAll()
		}
	}
}

func (s *Server) lookupBySocket(sess *Session) (*Session, bool) {
	found, ok := s.reg.bySocket[sess.Conn]
	return found, ok
}

// flushAll drains every session's write queue. Called once per event-loop
// iteration after any mutation.
func (s *Server) flushAll() {
	for _, sess := range s.reg.Sessions() {
		if !sess.HasQueued() {
			continue
		}
		for _, line := range sessionQueueSnapshot(sess) {
			s.log.LogOutgoing(sess.RemoteHost, sess.RemotePort, line)
		}
		if err := sess.Flush(); err != nil {
			s.reg.Detach(sess)
		}
	}
}

func sessionQueueSnapshot(sess *Session) []string {
	out := make([]string, len(sess.queue))
	copy(out, sess.queue)
	return out
}

// livenessSweep pings idle sessions, and detaches sessions that didn't
// answer a prior ping in time.
func (s *Server) livenessSweep() {
	now := time.Now()

	for _, sess := range s.reg.Sessions() {
		if sess.PingPending {
			if now.Sub(sess.LastPingSent) > s.cfg.PingTimeout {
				s.reg.Detach(sess)
			}
			continue
		}

		if now.Sub(sess.LastActivity) > s.cfg.IdleBeforePing {
			sess.Enqueue(pingLine(s.cfg.ServerName))
			sess.PingPending = true
			sess.LastPingSent = now
		}
	}
}

func pingLine(server string) string {
	return ":" + server + " PING :Aliveness check\r\n"
}

func splitHostPort(addr net.Addr) (string, int) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String(), 0
	}
	return tcpAddr.IP.String(), tcpAddr.Port
}

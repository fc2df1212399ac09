package ircd

import (
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/ludirc/ludserver/internal/ircmsg"
)

// ErrNicknameInUse is returned by ClaimNick when the requested nickname is
// already claimed, case-insensitively, by another session.
var ErrNicknameInUse = errors.New("ircd: nickname in use")

// ErrNickAlreadyClaimed is returned by ClaimNick when the session has
// already claimed a nickname. Changing nick after the first successful
// claim is forbidden.
var ErrNickAlreadyClaimed = errors.New("ircd: nickname already claimed")

// Registry is the process-wide, event-loop-owned directory tying transport
// endpoints, nicknames, and channels together.
//
// Every method here is meant to run on the single event-loop goroutine; the
// type itself holds no lock, by design — its maps are exclusively owned by
// that goroutine.
type Registry struct {
	bySocket  map[net.Conn]*Session
	byNick    map[string]*Session // canonical (lowercased) nick -> session
	byChannel map[string]*Channel // canonical (lowercased) name -> channel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySocket:  make(map[net.Conn]*Session),
		byNick:    make(map[string]*Session),
		byChannel: make(map[string]*Channel),
	}
}

func canonicalNick(n string) string { return strings.ToLower(n) }

func canonicalChannel(n string) string { return strings.ToLower(n) }

// Attach inserts a freshly accepted session into by_socket. The nickname
// index is populated later, by ClaimNick.
func (r *Registry) Attach(sess *Session) {
	r.bySocket[sess.Conn] = sess
}

// SessionByNick looks up a session by nickname, case-insensitively.
func (r *Registry) SessionByNick(nick string) (*Session, bool) {
	sess, ok := r.byNick[canonicalNick(nick)]
	return sess, ok
}

// Channel looks up a channel by name (with or without a leading '#').
func (r *Registry) Channel(name string) (*Channel, bool) {
	ch, ok := r.byChannel[canonicalChannel(strings.TrimPrefix(name, "#"))]
	return ch, ok
}

// Sessions returns every attached session. Used for LUSERS-style counts and
// the liveness sweep.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.bySocket))
	for _, sess := range r.bySocket {
		out = append(out, sess)
	}
	return out
}

// RegisteredCount returns the number of sessions that have completed full
// registration (both NICK and USER), as distinct from the broader set of
// attached sessions or sessions that have only claimed a nickname so far.
func (r *Registry) RegisteredCount() int {
	n := 0
	for _, sess := range r.bySocket {
		if sess.Registered {
			n++
		}
	}
	return n
}

// ClaimNick attempts to assign nick to sess. It rejects a case-insensitive
// duplicate with ErrNicknameInUse, and rejects a second claim by the same
// session (rename) with ErrNickAlreadyClaimed.
func (r *Registry) ClaimNick(sess *Session, nick string) error {
	if sess.Nick != "" {
		return ErrNickAlreadyClaimed
	}

	canon := canonicalNick(nick)
	if _, exists := r.byNick[canon]; exists {
		return ErrNicknameInUse
	}

	r.byNick[canon] = sess
	sess.Nick = nick
	return nil
}

// AddToChannel adds sess to the named channel, creating it lazily if this is
// the first member. It returns the channel and whether sess was already a
// member (a no-op join).
func (r *Registry) AddToChannel(sess *Session, name string) (*Channel, bool) {
	canon := canonicalChannel(name)

	ch, exists := r.byChannel[canon]
	if !exists {
		ch = newChannel(name)
		r.byChannel[canon] = ch
	}

	if _, already := ch.Members[canonicalNick(sess.Nick)]; already {
		return ch, true
	}

	ch.Members[canonicalNick(sess.Nick)] = sess
	sess.Channels[canon] = struct{}{}
	return ch, false
}

// RemoveFromChannel removes sess from the named channel. If the channel
// becomes empty, it is deleted from the registry. It reports whether the
// channel existed and whether sess was a member of it.
func (r *Registry) RemoveFromChannel(sess *Session, name string) (existed, wasMember bool) {
	canon := canonicalChannel(name)

	ch, exists := r.byChannel[canon]
	if !exists {
		return false, false
	}

	nickCanon := canonicalNick(sess.Nick)
	if _, member := ch.Members[nickCanon]; !member {
		return true, false
	}

	delete(ch.Members, nickCanon)
	delete(sess.Channels, canon)

	if len(ch.Members) == 0 {
		delete(r.byChannel, canon)
	}

	return true, true
}

// AnnounceQuit enqueues a QUIT line, sourced from sess, to every other
// member of every channel sess has joined. Each recipient is told at most
// once even if co-resident with sess in several shared channels.
func (r *Registry) AnnounceQuit(sess *Session, reason string) {
	told := make(map[string]struct{})
	source := sess.NickUhost()

	for canon := range sess.Channels {
		ch, ok := r.byChannel[canon]
		if !ok {
			continue
		}
		for nick, member := range ch.Members {
			if member == sess {
				continue
			}
			if _, seen := told[nick]; seen {
				continue
			}
			told[nick] = struct{}{}
			member.Enqueue(ircmsg.FormatFromSource(source, "QUIT", quitParam(reason)...))
		}
	}
}

// AnnouncePart enqueues a PART line for the named channel to every current
// member, including sess itself. It does not itself remove sess from the
// channel; call RemoveFromChannel separately.
func (r *Registry) AnnouncePart(sess *Session, name, reason string) {
	ch, ok := r.Channel(name)
	if !ok {
		return
	}

	source := sess.NickUhost()
	params := []string{"#" + ch.Name}
	if reason != "" {
		params = append(params, ":"+reason)
	}
	line := ircmsg.FormatFromSource(source, "PART", params...)

	for _, member := range ch.Members {
		member.Enqueue(line)
	}
}

// AnnounceJoin enqueues a JOIN line for the named channel to every current
// member, including sess itself.
func (r *Registry) AnnounceJoin(sess *Session, ch *Channel) {
	line := ircmsg.FormatFromSource(sess.NickUhost(), "JOIN", "#"+ch.Name)
	for _, member := range ch.Members {
		member.Enqueue(line)
	}
}

// Detach performs the mechanical teardown of a session: remove sess from
// every channel it joined (cascading empty-channel deletion), remove it
// from by_nick if present, remove it from by_socket, and close the
// transport. It does not itself broadcast anything — the QUIT command
// handler calls AnnounceQuit explicitly before calling Detach, and the
// event loop's EOF/liveness/encoding paths intentionally do not broadcast.
func (r *Registry) Detach(sess *Session) {
	for canon := range copyKeys(sess.Channels) {
		if ch, ok := r.byChannel[canon]; ok {
			delete(ch.Members, canonicalNick(sess.Nick))
			if len(ch.Members) == 0 {
				delete(r.byChannel, canon)
			}
		}
		delete(sess.Channels, canon)
	}

	if sess.Nick != "" {
		delete(r.byNick, canonicalNick(sess.Nick))
	}
	delete(r.bySocket, sess.Conn)

	_ = sess.Conn.Close()
}

func copyKeys(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func quitParam(reason string) []string {
	if reason == "" {
		return nil
	}
	return []string{":" + reason}
}

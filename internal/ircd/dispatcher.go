package ircd

import (
	"strings"
	"time"

	"github.com/ludirc/ludserver/internal/ircmsg"
	"github.com/ludirc/ludserver/internal/logging"
)

// registrationGate lists the commands a session may use before completing
// NICK+USER registration.
var registrationGate = map[string]bool{
	"NICK": true,
	"USER": true,
	"PING": true,
	"QUIT": true,
	"PONG": true,
}

// Dispatcher is the command dispatcher: it branches on the command token,
// mutates session/registry state, and enqueues replies.
type Dispatcher struct {
	Reg     *Registry
	Server  string
	Version string
	MOTD    string
	Log     logging.Logger
}

// NewDispatcher builds a dispatcher bound to one registry and server
// identity.
func NewDispatcher(reg *Registry, server, version, motd string, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Discard
	}
	return &Dispatcher{Reg: reg, Server: server, Version: version, MOTD: motd, Log: log}
}

func (d *Dispatcher) r() replies { return replies{server: d.Server} }

// Dispatch parses one raw protocol line from sess and handles it. Framing
// and UTF-8 validation already happened upstream (internal/ircmsg.Framer);
// this is purely the command-dispatch layer.
func (d *Dispatcher) Dispatch(sess *Session, raw string) {
	d.Log.LogIncoming(sess.RemoteHost, sess.RemotePort, raw)

	msg, err := ircmsg.Parse(raw)
	if err != nil {
		// Malformed beyond recognition (e.g. a bare prefix with no command).
		// No numeric reply covers this; drop it silently.
		return
	}

	sess.LastActivity = time.Now()

	if !sess.Registered && !registrationGate[msg.Command] {
		sess.Enqueue(d.r().notRegistered(sess.DisplayNick()))
		return
	}

	switch msg.Command {
	case "NICK":
		d.nick(sess, msg.Params)
	case "USER":
		d.user(sess, msg.Params)
	case "JOIN":
		d.join(sess, msg.Params)
	case "PART":
		d.part(sess, msg.Params)
	case "WHO":
		d.who(sess, msg.Params)
	case "PRIVMSG":
		d.privmsg(sess, msg.Params)
	case "PING":
		d.ping(sess, msg.Params)
	case "PONG":
		d.pong(sess)
	case "QUIT":
		d.quit(sess, msg.Params)
	default:
		sess.Enqueue(d.r().unknownCommand(sess.DisplayNick(), msg.Command))
	}
}

func (d *Dispatcher) nick(sess *Session, params string) {
	nick := strings.TrimSpace(params)

	switch validateNick(nick) {
	case nickEmpty:
		sess.Enqueue(d.r().noNicknameGiven())
		return
	case nickInvalid:
		sess.Enqueue(d.r().erroneousNickname(nick))
		return
	}

	if err := d.Reg.ClaimNick(sess, nick); err != nil {
		// Both a caselessly-duplicate claim and a second claim by a session
		// that already holds a nickname (a rename, which this core forbids)
		// report 433 — see DESIGN.md for why these two cases are folded together.
		sess.Enqueue(d.r().nicknameInUse(nick))
		return
	}
}

func (d *Dispatcher) user(sess *Session, params string) {
	if sess.User != "" {
		sess.Enqueue(d.r().alreadyRegistered())
		return
	}

	// Registration is NICK followed by USER: USER without a claimed nickname
	// is refused and records nothing.
	if sess.Nick == "" {
		sess.Enqueue(d.r().notRegistered(sess.DisplayNick()))
		return
	}

	tokens := strings.SplitN(params, " ", 4)
	if len(tokens) < 4 {
		sess.Enqueue(d.r().needMoreParams())
		return
	}

	sess.User = tokens[0]
	sess.RealName = strings.TrimPrefix(tokens[3], ":")
	sess.Registered = true

	d.welcomeBurst(sess)
}

func (d *Dispatcher) welcomeBurst(sess *Session) {
	r := d.r()
	nick := sess.Nick

	sess.Enqueue(r.welcome(nick, sess.User, sess.RemoteHost))
	sess.Enqueue(r.yourHost(nick, d.Version))
	sess.Enqueue(r.created(nick))
	sess.Enqueue(r.myInfo(nick, d.Version))
	sess.Enqueue(r.luserClient(nick, d.Reg.RegisteredCount()))

	if d.MOTD == "" {
		sess.Enqueue(r.noMotd(nick))
		return
	}

	sess.Enqueue(r.motdStart(nick))
	sess.Enqueue(r.motd(nick, d.MOTD))
	sess.Enqueue(r.endOfMotd(nick))
}

func (d *Dispatcher) join(sess *Session, params string) {
	if strings.TrimSpace(params) == "" {
		sess.Enqueue(d.r().needMoreParams())
		return
	}

	name := canonicalChannelName(firstToken(params))

	ch, alreadyMember := d.Reg.AddToChannel(sess, name)
	if alreadyMember {
		return
	}

	d.Reg.AnnounceJoin(sess, ch)

	r := d.r()
	if ch.Topic == "" {
		sess.Enqueue(r.noTopic(sess.Nick, ch.Name))
	} else {
		sess.Enqueue(r.topic(sess.Nick, ch.Name, ch.Topic))
	}
	sess.Enqueue(r.namReply(sess.Nick, ch.Name, strings.Join(ch.Nicks(), " ")))
	sess.Enqueue(r.endOfNames(sess.Nick, ch.Name))
}

func (d *Dispatcher) part(sess *Session, params string) {
	if strings.TrimSpace(params) == "" {
		sess.Enqueue(d.r().needMoreParams())
		return
	}

	targets, reason, _ := splitTrailing(params)
	if targets == "" {
		targets = params
		reason = ""
	}

	r := d.r()
	for _, target := range strings.Split(targets, ",") {
		name := canonicalChannelName(strings.TrimSpace(target))

		ch, ok := d.Reg.Channel(name)
		if !ok {
			sess.Enqueue(r.noSuchChannel(sess.Nick, "#"+name))
			return
		}
		if _, member := ch.Members[canonicalNick(sess.Nick)]; !member {
			sess.Enqueue(r.notOnChannel(sess.Nick, "#"+name))
			continue
		}

		d.Reg.AnnouncePart(sess, name, reason)
		d.Reg.RemoveFromChannel(sess, name)
	}
}

func (d *Dispatcher) who(sess *Session, params string) {
	name := canonicalChannelName(firstToken(params))
	r := d.r()

	if ch, ok := d.Reg.Channel(name); ok {
		for _, nick := range ch.Nicks() {
			member := ch.Members[canonicalNick(nick)]
			sess.Enqueue(r.whoReply(sess.Nick, ch.Name, member.User, member.RemoteHost, d.Server, member.Nick, member.RealName))
		}
	}

	sess.Enqueue(r.endOfWho(sess.Nick))
}

func (d *Dispatcher) privmsg(sess *Session, params string) {
	r := d.r()

	if params == "" {
		sess.Enqueue(r.needMoreParams())
		return
	}

	target, rest, hasRest := splitOnce(params, " ")
	if target == "" {
		sess.Enqueue(r.noRecipient())
		return
	}
	if !hasRest {
		sess.Enqueue(r.noTextToSend())
		return
	}

	text := strings.TrimPrefix(rest, ":")

	if strings.HasPrefix(target, "#") {
		name := canonicalChannelName(target)
		ch, ok := d.Reg.Channel(name)
		if !ok {
			sess.Enqueue(r.noSuchChannel(sess.Nick, target))
			return
		}

		line := ircmsg.FormatFromSource(sess.NickUhost(), "PRIVMSG", target, ":"+text)
		for _, member := range ch.Members {
			if member == sess {
				continue
			}
			member.Enqueue(line)
		}
		return
	}

	target2, ok := d.Reg.SessionByNick(target)
	if !ok {
		sess.Enqueue(r.noSuchNick(sess.Nick, target))
		return
	}

	target2.Enqueue(ircmsg.FormatFromSource(sess.NickUhost(), "PRIVMSG", target, ":"+text))
}

func (d *Dispatcher) ping(sess *Session, params string) {
	if strings.TrimSpace(params) == "" {
		sess.Enqueue(d.r().needMoreParams())
		return
	}
	sess.Enqueue(ircmsg.FormatServerReply(d.Server, "PONG", params))
}

func (d *Dispatcher) pong(sess *Session) {
	sess.PingPending = false
}

func (d *Dispatcher) quit(sess *Session, params string) {
	reason := strings.TrimPrefix(params, ":")

	d.Reg.AnnounceQuit(sess, reason)
	d.Reg.Detach(sess)
}

// splitOnce splits s on the first occurrence of sep, reporting whether sep
// was found at all (as opposed to s simply having no second field).
func splitOnce(s, sep string) (first, rest string, found bool) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

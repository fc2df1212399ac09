package ircd

import (
	"fmt"

	"github.com/ludirc/ludserver/internal/ircmsg"
)

// replies renders the numeric-reply vocabulary, bound to one server name.
// Every method returns a complete CRLF-terminated line.
type replies struct {
	server string
}

func (r replies) line(code, nick string, params ...string) string {
	all := append([]string{nick}, params...)
	return ircmsg.FormatServerReply(r.server, code, all...)
}

// lineNoNick renders the handful of numerics whose template has no leading
// <nick> token at all (411, 412, 431, 461, 462).
func (r replies) lineNoNick(code string, params ...string) string {
	return ircmsg.FormatServerReply(r.server, code, params...)
}

func (r replies) welcome(nick, user, host string) string {
	return r.line("001", nick, ":Welcome to the IRC!:"+nick+"!"+user+"@"+host)
}

func (r replies) yourHost(nick, version string) string {
	return r.line("002", nick, ":Your host is "+r.server+" running version "+version)
}

func (r replies) created(nick string) string {
	return r.line("003", nick, ":This server was created sometime.")
}

func (r replies) myInfo(nick, version string) string {
	return r.line("004", nick, r.server, version, "o", "o")
}

func (r replies) luserClient(nick string, n int) string {
	return r.line("251", nick, fmt.Sprintf(":There are %d users and 0 services on 1 servers", n))
}

func (r replies) endOfWho(nick string) string {
	return r.line("315", nick, ":End of WHO list")
}

func (r replies) noTopic(nick, chanName string) string {
	return r.line("331", nick, "#"+chanName, ":No topic is set")
}

func (r replies) topic(nick, chanName, topic string) string {
	return r.line("332", nick, "#"+chanName, ":"+topic)
}

func (r replies) whoReply(nick, chanName, user, host, srvHost, memberNick, realName string) string {
	return r.line("352", nick, "#"+chanName, user, host, srvHost, memberNick, "H", ":0 "+realName)
}

func (r replies) namReply(nick, chanName, nicks string) string {
	return r.line("353", nick, "=", "#"+chanName, ":"+nicks)
}

func (r replies) endOfNames(nick, chanName string) string {
	return r.line("366", nick, "#"+chanName, ":End of NAMES list")
}

func (r replies) motd(nick, motd string) string {
	return r.line("372", nick, ":- "+motd)
}

func (r replies) motdStart(nick string) string {
	return r.line("375", nick, ":- "+r.server+" Message of the day -")
}

func (r replies) endOfMotd(nick string) string {
	return r.line("376", nick, ":End of MOTD command")
}

func (r replies) noSuchNick(nick, target string) string {
	return r.line("401", nick, target, ":No such nick/channel")
}

func (r replies) noSuchChannel(nick, target string) string {
	return r.line("403", nick, target, ":No such channel")
}

func (r replies) noRecipient() string {
	return r.lineNoNick("411", ":No recipient given")
}

func (r replies) noTextToSend() string {
	return r.lineNoNick("412", ":No text to send")
}

func (r replies) unknownCommand(nick, cmd string) string {
	return r.line("421", nick, cmd, ":Unknown command")
}

func (r replies) noMotd(nick string) string {
	return r.line("422", nick, ":MOTD file is missing")
}

func (r replies) noNicknameGiven() string {
	return r.lineNoNick("431", ":No nickname given")
}

// erroneousNickname fuses the nick and the message with no separating
// space into a single parameter: "<nick>:Erroneus nickname".
func (r replies) erroneousNickname(nick string) string {
	return r.lineNoNick("432", nick+":Erroneus nickname")
}

// nicknameInUse fuses the nick and message the same way as
// erroneousNickname.
func (r replies) nicknameInUse(nick string) string {
	return r.lineNoNick("433", nick+":Nickname is already in use")
}

func (r replies) notOnChannel(nick, target string) string {
	return r.line("442", nick, target, ":You're not on that channel")
}

func (r replies) notRegistered(nick string) string {
	return r.line("451", nick, ":Not registered")
}

func (r replies) needMoreParams() string {
	return r.lineNoNick("461", ":Not enough parameters")
}

func (r replies) alreadyRegistered() string {
	return r.lineNoNick("462", ":Unauthorized command (already registered)")
}

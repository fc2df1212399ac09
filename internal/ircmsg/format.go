package ircmsg

import "strings"

// FormatServerReply produces a server-originated line:
// ":<server> <command> <params>\r\n". No escaping is performed; params are
// expected to already carry any needed ':' trailing-parameter sigil.
func FormatServerReply(server, command string, params ...string) string {
	return format(":"+server, command, params)
}

// FormatClientReply produces a client-originated broadcast line (JOIN, PART,
// QUIT, PRIVMSG, NICK) sourced from "nick!user@host".
func FormatClientReply(nick, user, host, command string, params ...string) string {
	return format(":"+nick+"!"+user+"@"+host, command, params)
}

// FormatFromSource produces a line from an already-assembled source string
// (e.g. a precomputed "nick!user@host"), without re-deriving it from parts.
func FormatFromSource(source, command string, params ...string) string {
	return format(":"+source, command, params)
}

func format(source, command string, params []string) string {
	parts := make([]string, 0, 2+len(params))
	parts = append(parts, source, command)
	parts = append(parts, params...)
	return strings.Join(parts, " ") + "\r\n"
}

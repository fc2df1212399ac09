package ircd

import "strings"

const maxNickLength = 9

// nicknameFirstCharForbidden holds the characters a nickname may never
// start with.
const nicknameFirstCharForbidden = "$:#&"

// nicknameCharsForbidden holds the characters that are never allowed
// anywhere in a nickname.
const nicknameCharsForbidden = " ,!?@*."

// nickError classifies why a candidate nickname was rejected, so the
// dispatcher can pick the matching numeric (431 vs 432).
type nickError int

const (
	nickOK nickError = iota
	nickEmpty
	nickInvalid
)

// validateNick applies the structural rules a candidate nickname must
// satisfy, NOT the uniqueness or rename checks — those go through the
// registry.
func validateNick(nick string) nickError {
	if nick == "" {
		return nickEmpty
	}
	if len(nick) > maxNickLength {
		return nickInvalid
	}
	if strings.ContainsRune(nicknameFirstCharForbidden, rune(nick[0])) {
		return nickInvalid
	}
	if strings.ContainsAny(nick, nicknameCharsForbidden) {
		return nickInvalid
	}
	return nickOK
}

// canonicalChannelName strips a single leading '#' sigil — the sigil is
// optional in this implementation.
func canonicalChannelName(token string) string {
	return strings.TrimPrefix(token, "#")
}

// firstToken returns the first whitespace-delimited, comma-free token of
// params.
func firstToken(params string) string {
	fields := strings.Fields(params)
	if len(fields) == 0 {
		return ""
	}
	if idx := strings.IndexByte(fields[0], ','); idx >= 0 {
		return fields[0][:idx]
	}
	return fields[0]
}

// splitTrailing finds the IRC "trailing parameter" convention (a ':'-led
// final field that may itself contain spaces) within a raw params tail. It
// returns the text before the trailing marker (trimmed) and the trailing
// text itself (without its leading ':'), plus whether a trailing marker was
// found at all.
func splitTrailing(params string) (leading, trailing string, hasTrailing bool) {
	if params == "" {
		return "", "", false
	}
	if params[0] == ':' {
		return "", params[1:], true
	}
	if idx := strings.Index(params, " :"); idx >= 0 {
		return strings.TrimSpace(params[:idx]), params[idx+2:], true
	}
	return strings.TrimSpace(params), "", false
}

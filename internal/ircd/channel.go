package ircd

import "sort"

// Channel is a named, membership-based message relay group. Created lazily
// on first JOIN; destroyed once its membership becomes empty.
type Channel struct {
	// Name is stored without the leading '#' sigil.
	Name string

	// Topic may be empty. Nothing in this core's command set ever sets it to
	// a non-empty value — no TOPIC command is implemented — but the field
	// survives JOIN/PART and is discarded with the channel once membership
	// empties.
	Topic string

	// Members maps canonical (lowercased) nickname to the owning session.
	Members map[string]*Session
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:    name,
		Members: make(map[string]*Session),
	}
}

// Nicks returns the member nicknames in canonical sort order, used for
// RPL_NAMREPLY (353) and WHO (352) output.
func (c *Channel) Nicks() []string {
	names := make([]string, 0, len(c.Members))
	for _, sess := range c.Members {
		names = append(names, sess.Nick)
	}
	sort.Strings(names)
	return names
}

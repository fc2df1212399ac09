package ircd

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ludirc/ludserver/internal/logging"
)

func newDispatcherFixture(t *testing.T) (*Dispatcher, *Registry) {
	t.Helper()
	reg := NewRegistry()
	disp := NewDispatcher(reg, "irc.example.org", "LudServer1.0", "", logging.Discard)
	return disp, reg
}

func connectSession(t *testing.T, reg *Registry) *Session {
	t.Helper()
	client, _ := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })
	sess := NewSession(client, "127.0.0.1", 5555)
	reg.Attach(sess)
	return sess
}

func register(t *testing.T, disp *Dispatcher, sess *Session, nick string) {
	t.Helper()
	disp.Dispatch(sess, "NICK "+nick)
	disp.Dispatch(sess, "USER "+nick+" 0 * :"+nick+" Realname")
	sess.queue = sess.queue[:0]
}

func TestNickDuplicateRejected(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	alice := connectSession(t, reg)
	bob := connectSession(t, reg)

	register(t, disp, alice, "alice")

	disp.Dispatch(bob, "NICK alice")
	require.Len(t, bob.queue, 1)
	require.Contains(t, bob.queue[0], "433")
	require.Contains(t, bob.queue[0], "alice:Nickname is already in use")
}

func TestWelcomeBurstOrdering(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	sess := connectSession(t, reg)

	disp.Dispatch(sess, "NICK alice")
	disp.Dispatch(sess, "USER alice 0 * :Alice A")

	require.GreaterOrEqual(t, len(sess.queue), 6)
	codes := []string{"001", "002", "003", "004", "251", "422"}
	for i, code := range codes {
		require.Contains(t, sess.queue[i], code)
	}
}

func TestJoinFanOutAndNames(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	alice := connectSession(t, reg)
	bob := connectSession(t, reg)
	register(t, disp, alice, "alice")
	register(t, disp, bob, "bob")

	disp.Dispatch(alice, "JOIN #room")
	alice.queue = alice.queue[:0]

	disp.Dispatch(bob, "JOIN #room")

	require.Len(t, alice.queue, 1, "alice only hears bob's JOIN broadcast")
	require.Contains(t, alice.queue[0], "JOIN #room")

	require.GreaterOrEqual(t, len(bob.queue), 4)
	require.Contains(t, bob.queue[0], "JOIN #room")
	require.Contains(t, bob.queue[1], "331") // no topic
	require.Contains(t, bob.queue[2], "353") // names
	require.Contains(t, bob.queue[3], "366") // end of names
}

func TestPrivmsgChannelFanOutExcludesSender(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	alice := connectSession(t, reg)
	bob := connectSession(t, reg)
	register(t, disp, alice, "alice")
	register(t, disp, bob, "bob")
	disp.Dispatch(alice, "JOIN #room")
	disp.Dispatch(bob, "JOIN #room")
	alice.queue = alice.queue[:0]
	bob.queue = bob.queue[:0]

	disp.Dispatch(alice, "PRIVMSG #room :hello room")

	require.Len(t, alice.queue, 0, "sender does not receive its own PRIVMSG echo")
	require.Len(t, bob.queue, 1)
	require.Contains(t, bob.queue[0], "PRIVMSG #room :hello room")
}

func TestPartDeletesEmptyChannelThenFreshOnRejoin(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	alice := connectSession(t, reg)
	register(t, disp, alice, "alice")

	disp.Dispatch(alice, "JOIN #room")
	disp.Dispatch(alice, "PART #room :later")

	_, stillThere := reg.Channel("room")
	require.False(t, stillThere)

	alice.queue = alice.queue[:0]
	disp.Dispatch(alice, "JOIN #room")

	ch, ok := reg.Channel("room")
	require.True(t, ok)
	require.Empty(t, ch.Topic, "rejoining after full teardown gets a fresh channel")
}

func TestPartNotOnChannel(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	alice := connectSession(t, reg)
	bob := connectSession(t, reg)
	register(t, disp, alice, "alice")
	register(t, disp, bob, "bob")
	disp.Dispatch(alice, "JOIN #room")
	bob.queue = bob.queue[:0]

	disp.Dispatch(bob, "PART #room")

	require.Len(t, bob.queue, 1)
	require.Contains(t, bob.queue[0], "442")
}

func TestUnregisteredGateBlocksCommands(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	sess := connectSession(t, reg)

	disp.Dispatch(sess, "JOIN #room")

	require.Len(t, sess.queue, 1)
	require.Contains(t, sess.queue[0], "451")
}

func TestPingRepliesWithPong(t *testing.T) {
	disp, reg := newDispatcherFixture(t)
	sess := connectSession(t, reg)
	register(t, disp, sess, "alice")

	disp.Dispatch(sess, "PING :token123")

	require.Len(t, sess.queue, 1)
	require.Contains(t, sess.queue[0], "PONG :token123")
}

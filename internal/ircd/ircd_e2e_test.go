package ircd

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ludirc/ludserver/internal/logging"
)

// startTestServer binds an ephemeral port and runs the event loop in the
// background, returning the address to dial. The server is closed by a
// t.Cleanup hook.
func startTestServer(t *testing.T, cfg Config) string {
	t.Helper()

	if cfg.ServerName == "" {
		cfg.ServerName = "irc.example.org"
	}
	if cfg.Version == "" {
		cfg.Version = "LudServer1.0"
	}
	if cfg.IdleBeforePing == 0 {
		cfg.IdleBeforePing = 90 * time.Second
	}
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = 15 * time.Second
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(cfg, logging.Discard)
	srv.listener = ln
	srv.sweepInterval = 20 * time.Millisecond

	go srv.acceptLoop()
	go srv.eventLoop()

	t.Cleanup(func() { _ = srv.Close() })

	return ln.Addr().String()
}

func dialAndRegister(t *testing.T, addr, nick string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Write([]byte("NICK " + nick + "\r\nUSER " + nick + " 0 * :" + nick + " Realname\r\n"))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	for i := 0; i < 6; i++ {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if i == 5 { // RPL_ENDOFMOTD-or-NOMOTD is the last welcome-burst line
			require.True(t,
				strings.Contains(line, "376") || strings.Contains(line, "422"),
				"expected welcome burst to end with MOTD end or missing-MOTD, got %q", line)
		}
	}

	return conn, r
}

func TestE2EWelcomeBurst(t *testing.T) {
	addr := startTestServer(t, Config{Port: 0})
	dialAndRegister(t, addr, "alice")
}

func TestE2EJoinAndPrivmsgFanOut(t *testing.T) {
	addr := startTestServer(t, Config{Port: 0})

	aliceConn, aliceR := dialAndRegister(t, addr, "alice")
	bobConn, bobR := dialAndRegister(t, addr, "bob")

	_, err := aliceConn.Write([]byte("JOIN #room\r\n"))
	require.NoError(t, err)
	for i := 0; i < 4; i++ { // JOIN, 331, 353, 366
		_, err := aliceR.ReadString('\n')
		require.NoError(t, err)
	}

	_, err = bobConn.Write([]byte("JOIN #room\r\n"))
	require.NoError(t, err)

	line, err := aliceR.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "JOIN #room")

	for i := 0; i < 4; i++ {
		_, err := bobR.ReadString('\n')
		require.NoError(t, err)
	}

	_, err = aliceConn.Write([]byte("PRIVMSG #room :hi there\r\n"))
	require.NoError(t, err)

	line, err = bobR.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "PRIVMSG #room :hi there")
}

func TestE2EInvalidEncodingGets451ThenCloses(t *testing.T) {
	addr := startTestServer(t, Config{Port: 0})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Write([]byte{'N', 'I', 'C', 'K', ' ', 0xff, 0xfe, '\r', '\n'})
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "451")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = r.ReadString('\n')
	require.Error(t, err, "connection should be closed right after the 451 reply")
}

func TestE2ELivenessTimeoutDetaches(t *testing.T) {
	addr := startTestServer(t, Config{
		Port:           0,
		IdleBeforePing: 30 * time.Millisecond,
		PingTimeout:    30 * time.Millisecond,
	})

	conn, r := dialAndRegister(t, addr, "alice")

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "PING")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = r.ReadString('\n')
	require.Error(t, err, "connection should be closed after a PING goes unanswered")
}

package ircd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateNick(t *testing.T) {
	tests := []struct {
		nick string
		want nickError
	}{
		{"", nickEmpty},
		{"alice", nickOK},
		{"Alice_99", nickOK},
		{"123456789", nickOK},
		{"1234567890", nickInvalid}, // 10 chars, over maxNickLength
		{"#alice", nickInvalid},
		{"$alice", nickInvalid},
		{":alice", nickInvalid},
		{"&alice", nickInvalid},
		{"ali ce", nickInvalid},
		{"ali,ce", nickInvalid},
		{"ali!ce", nickInvalid},
	}

	for _, test := range tests {
		require.Equal(t, test.want, validateNick(test.nick), "validateNick(%q)", test.nick)
	}
}

func TestCanonicalChannelName(t *testing.T) {
	require.Equal(t, "room", canonicalChannelName("#room"))
	require.Equal(t, "room", canonicalChannelName("room"))
}

func TestFirstToken(t *testing.T) {
	require.Equal(t, "#room", firstToken("#room"))
	require.Equal(t, "#room", firstToken("#room,#other"))
	require.Equal(t, "#room", firstToken("#room extra stuff"))
	require.Equal(t, "", firstToken("   "))
}

func TestSplitTrailing(t *testing.T) {
	leading, trailing, has := splitTrailing("#a,#b :goodbye cruel world")
	require.Equal(t, "#a,#b", leading)
	require.Equal(t, "goodbye cruel world", trailing)
	require.True(t, has)

	leading, trailing, has = splitTrailing(":only a reason")
	require.Equal(t, "", leading)
	require.Equal(t, "only a reason", trailing)
	require.True(t, has)

	leading, trailing, has = splitTrailing("#a,#b")
	require.Equal(t, "#a,#b", leading)
	require.Equal(t, "", trailing)
	require.False(t, has)
}

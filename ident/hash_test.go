package ident

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainSeparation(t *testing.T) {
	// The same trailing bytes under different domain tags must hash
	// differently, for every documented tag pair.
	b := make([]byte, 32)
	tags := []string{TagNode, TagEdge, TagState, TagCommit, TagPatch, TagWarpKey, TagEmit, TagSchema}

	seen := make(map[Hash]string)
	for _, tag := range tags {
		h := HashConcat(tag, b)
		if other, ok := seen[h]; ok {
			t.Fatalf("tag %q and %q collided on identical bytes", tag, other)
		}
		seen[h] = tag
	}
}

func TestDomainSeparationNodeEdge(t *testing.T) {
	// The scenario 6 worked example: b = [0x00;32], "node" vs "edge".
	b := make([]byte, 32)
	nodeHash := HashConcat(TagNode, b)
	edgeHash := HashConcat(TagEdge, b)
	require.NotEqual(t, nodeHash, edgeHash)
}

func TestHashHexRoundTrip(t *testing.T) {
	h := HashConcat(TagState, []byte("anything"))
	hex := h.String()

	parsed, err := HashFromHex(hex)
	require.NoError(t, err)
	require.Equal(t, hex, parsed.String())
	require.Equal(t, h, parsed)
}

func TestHashFromHexRejectsBadLength(t *testing.T) {
	_, err := HashFromHex("deadbeef")
	require.Error(t, err)
}

func TestHashFromHexRejectsBadHex(t *testing.T) {
	_, err := HashFromHex("not-hex-not-hex-not-hex-not-hex-not-hex-not-hex-not-hex-notxxx")
	require.Error(t, err)
}

func TestHashLess(t *testing.T) {
	var a, b Hash
	a[0] = 1
	b[0] = 2
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}

func TestZeroHashIsNeverProduced(t *testing.T) {
	h := HashConcat(TagNode, nil)
	require.False(t, h.IsZero())
}

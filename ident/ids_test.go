package ident

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWorldlineIdIsStableByName(t *testing.T) {
	a := NewWorldlineId("default")
	b := NewWorldlineId("default")
	require.Equal(t, a, b)
	require.NotEqual(t, a, NewWorldlineId("other"))
}

func TestNewIntentIdVariesByTickAndWarp(t *testing.T) {
	w := NewWarpId("root")
	t0 := NewIntentId(w, 0)
	t1 := NewIntentId(w, 1)
	require.NotEqual(t, t0, t1)

	otherWarp := NewWarpId("other")
	require.NotEqual(t, t0, NewIntentId(otherWarp, 0))
}

func TestNewCursorIdVariesBySessionWorldlineAndTick(t *testing.T) {
	session := SessionId(HashConcat(TagNode, []byte("session\x00"), []byte("s1")))
	otherSession := SessionId(HashConcat(TagNode, []byte("session\x00"), []byte("s2")))
	world := NewWorldlineId("default")

	c0 := NewCursorId(session, world, 0)
	c1 := NewCursorId(session, world, 1)
	require.NotEqual(t, c0, c1)

	require.NotEqual(t, c0, NewCursorId(otherSession, world, 0))
	require.Equal(t, c0, NewCursorId(session, world, 0))
}

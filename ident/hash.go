// Package ident provides the engine's content-addressed identifier and
// hashing primitives: a fixed-width domain-separated Hash, the typed
// newtypes built on top of it (NodeId, EdgeId, TypeId, ...), and the
// canonicalization rules (scalar, Q32.32 fixed point) that make hashing
// a pure function of bytes rather than of host-dependent representations.
package ident

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the width in bytes of every content hash produced by this
// package. All hashes — node, edge, state, patch, commit, attachment —
// share this width so they can be stored, compared, and wire-encoded
// uniformly.
const Size = 32

// Hash is a fixed-width content hash. The zero Hash is never produced
// by Context.Sum; it serves as the sentinel for an unset id.
type Hash [Size]byte

// Zero is the sentinel empty hash that IsZero tests against. Tick 0's
// commit has an empty parents list rather than a Zero parent, and an
// absent payload is hashed as a single zero byte, not as Zero.
var Zero Hash

// String renders the hash as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the hash's underlying bytes as a slice. Callers must not
// mutate the returned slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// IsZero reports whether h is the sentinel empty hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Less gives the byte-lexicographic order used for canonical iteration
// and sorting everywhere ids need a total, host-independent order.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// HashFromHex parses a 64-character hex string into a Hash. It is the
// inverse of Hash.String: hashToHex(hexToHash(h)) == h for every valid
// 64-hex string.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("ident: invalid hex hash: %w", err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("ident: hash must be %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Domain tags. Every hashing Context begins with exactly one of these,
// and distinct tags must never collapse to the same digest for the same
// trailing bytes — this is what stops a NodeId and EdgeId built from
// identical witness bytes from colliding.
const (
	TagNode    = "node\x00\x00\x00\x00"
	TagEdge    = "edge\x00\x00\x00\x00"
	TagAttach  = "attach\x00\x00"
	TagState   = "state.v2"
	TagCommit  = "commitv2"
	TagPatch   = "patch.v1"
	TagWarpKey = "warpkey\x00"
	TagEmit    = "emit.v1\x00"
	TagSchema  = "schema.1"
)

// tagLen is the fixed width every domain tag is padded to. Using a fixed
// width (rather than hashing the tag's natural length) keeps tag bytes
// from being confusable with the payload that follows: a short tag
// padded with zero bytes can never be reinterpreted as a longer tag plus
// a shorter payload, because every tag occupies exactly tagLen bytes.
const tagLen = 8

// Context is an incremental, domain-separated hash builder. Construct one
// with NewContext(tag), Write the canonical byte representation of
// whatever is being hashed, then call Sum to finalize. A Context must not
// be reused after Sum.
type Context struct {
	h *blake3.Hasher
}

// NewContext starts a new hashing context under the given domain tag.
// The tag must be at most tagLen bytes; it is padded with zero bytes to
// exactly tagLen before any caller bytes are absorbed.
func NewContext(tag string) *Context {
	if len(tag) > tagLen {
		panic(fmt.Sprintf("ident: domain tag %q exceeds %d bytes", tag, tagLen))
	}
	h, err := blake3.New(Size, nil)
	if err != nil {
		panic(fmt.Sprintf("ident: blake3.New failed: %v", err))
	}
	var padded [tagLen]byte
	copy(padded[:], tag)
	h.Write(padded[:])
	return &Context{h: h}
}

// Write absorbs raw bytes into the context. It never returns an error:
// blake3.Hasher.Write is infallible per its hash.Hash contract.
func (c *Context) Write(b []byte) *Context {
	c.h.Write(b)
	return c
}

// WriteByte absorbs a single byte.
func (c *Context) WriteByte(b byte) *Context {
	c.h.Write([]byte{b})
	return c
}

// WriteUint32 absorbs a little-endian uint32. Every integer this package
// hashes is fixed-width little-endian, so two hosts of differing
// endianness still agree on the digest.
func (c *Context) WriteUint32(v uint32) *Context {
	var b [4]byte
	putUint32(b[:], v)
	return c.Write(b[:])
}

// WriteUint64 absorbs a little-endian uint64.
func (c *Context) WriteUint64(v uint64) *Context {
	var b [8]byte
	putUint64(b[:], v)
	return c.Write(b[:])
}

// Sum finalizes the context and returns the resulting Hash.
func (c *Context) Sum() Hash {
	var out Hash
	sum := c.h.Sum(nil)
	copy(out[:], sum)
	return out
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// HashConcat hashes a sequence of byte slices under a single domain tag,
// in order. This is the common case (hash_node, hash_edge, commit_hash)
// and is grounded on the concatenation-hash helper pattern used for
// canonical commitment hashing in the wider ecosystem (hash the domain
// tag, then each part in a fixed order).
func HashConcat(tag string, parts ...[]byte) Hash {
	ctx := NewContext(tag)
	for _, p := range parts {
		ctx.Write(p)
	}
	return ctx.Sum()
}

// Package receipt implements the v2 commit receipt: a fixed-width,
// little-endian, FROZEN wire layout emitted at the end of every tick.
// The field order is part of the protocol and must never change within
// version 2; a layout change is a version bump.
//
// Encoding uses encoding/binary directly rather than a general-purpose
// serialization library: the layout is fixed-width and byte-exact by
// specification (magic, version, per-field widths), which is exactly
// the case the standard library's binary package is for, and no
// reflection-based codec in the retrieved dependency set preserves a
// frozen field order without a struct-tag layer this format doesn't
// need.
package receipt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/warpgraph/warpengine/ident"
)

// Mode selects how much of a tick's detail a Receipt carries.
type Mode uint8

const (
	// ModeFull includes op bodies (the payload field).
	ModeFull Mode = iota
	// ModeProof includes only hashes: patch_digest, state_root,
	// commit_hash, emissions_digest.
	ModeProof
	// ModeLight is minimal: commit_hash and tick only, carried via the
	// same fixed header with an empty payload.
	ModeLight
)

const (
	magic   = "receipt2"
	version = uint32(2)
)

// Errors returned by Decode.
var (
	ErrBadMagic            = errors.New("receipt: bad magic")
	ErrIncompatibleVersion = errors.New("receipt: incompatible version")
	ErrTruncated           = errors.New("receipt: truncated")
)

// Receipt is the decoded form of the v2 wire layout.
type Receipt struct {
	Mode            Mode
	SchemaHash      ident.Hash
	WorldlineId     ident.WorldlineId
	Tick            uint64
	Parents         []ident.Hash
	PatchDigest     ident.Hash
	StateRoot       ident.Hash
	EmissionsDigest ident.Hash
	CommitHash      ident.Hash
	Payload         []byte
}

// Encode serializes r per the frozen v2 layout:
// magic[8] | version u32 | mode u8 | schema_hash[32] | worldline_id[32]
// | tick u64 | parents_len u32 | parents[...][32] | patch_digest[32]
// | state_root[32] | emissions_digest[32] | commit_hash[32]
// | payload_len u32 | payload[...]
func (r Receipt) Encode() []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(magic)
	writeUint32(buf, version)
	buf.WriteByte(byte(r.Mode))
	buf.Write(r.SchemaHash.Bytes())
	buf.Write(ident.Hash(r.WorldlineId).Bytes())
	writeUint64(buf, r.Tick)
	writeUint32(buf, uint32(len(r.Parents)))
	for _, p := range r.Parents {
		buf.Write(p.Bytes())
	}
	buf.Write(r.PatchDigest.Bytes())
	buf.Write(r.StateRoot.Bytes())
	buf.Write(r.EmissionsDigest.Bytes())
	buf.Write(r.CommitHash.Bytes())
	writeUint32(buf, uint32(len(r.Payload)))
	buf.Write(r.Payload)
	return buf.Bytes()
}

// Decode parses the frozen v2 layout, rejecting any version != 2 with
// ErrIncompatibleVersion (so a v1 reader given v2 bytes, or vice versa,
// always fails loudly rather than misinterpreting fields).
func Decode(b []byte) (Receipt, error) {
	var r Receipt
	rd := bytes.NewReader(b)

	magicBuf := make([]byte, len(magic))
	if _, err := readFull(rd, magicBuf); err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if string(magicBuf) != magic {
		return r, ErrBadMagic
	}

	ver, err := readUint32(rd)
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if ver != version {
		return r, fmt.Errorf("%w: got version %d, want %d", ErrIncompatibleVersion, ver, version)
	}

	modeByte, err := rd.ReadByte()
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	r.Mode = Mode(modeByte)

	if r.SchemaHash, err = readHash(rd); err != nil {
		return r, err
	}
	wid, err := readHash(rd)
	if err != nil {
		return r, err
	}
	r.WorldlineId = ident.WorldlineId(wid)

	tick, err := readUint64(rd)
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	r.Tick = tick

	parentsLen, err := readUint32(rd)
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	r.Parents = make([]ident.Hash, parentsLen)
	for i := range r.Parents {
		if r.Parents[i], err = readHash(rd); err != nil {
			return r, err
		}
	}

	if r.PatchDigest, err = readHash(rd); err != nil {
		return r, err
	}
	if r.StateRoot, err = readHash(rd); err != nil {
		return r, err
	}
	if r.EmissionsDigest, err = readHash(rd); err != nil {
		return r, err
	}
	if r.CommitHash, err = readHash(rd); err != nil {
		return r, err
	}

	payloadLen, err := readUint32(rd)
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	payload := make([]byte, payloadLen)
	if _, err := readFull(rd, payload); err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	r.Payload = payload

	return r, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readUint32(rd *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(rd, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(rd *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(rd, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readHash(rd *bytes.Reader) (ident.Hash, error) {
	var h ident.Hash
	if _, err := readFull(rd, h[:]); err != nil {
		return h, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return h, nil
}

func readFull(rd *bytes.Reader, b []byte) (int, error) {
	n, err := rd.Read(b)
	if n == len(b) {
		return n, nil
	}
	if err == nil {
		err = errors.New("short read")
	}
	return n, err
}

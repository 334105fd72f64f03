package receipt

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warpgraph/warpengine/ident"
)

func sampleReceipt() Receipt {
	mk := func(b byte) ident.Hash {
		var h ident.Hash
		h[0] = b
		return h
	}
	return Receipt{
		Mode:            ModeFull,
		SchemaHash:      mk(1),
		WorldlineId:     ident.WorldlineId(mk(2)),
		Tick:            42,
		Parents:         []ident.Hash{mk(3), mk(4)},
		PatchDigest:     mk(5),
		StateRoot:       mk(6),
		EmissionsDigest: mk(7),
		CommitHash:      mk(8),
		Payload:         []byte("hello"),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := sampleReceipt()
	decoded, err := Decode(r.Encode())
	require.NoError(t, err)
	require.Equal(t, r, decoded)
}

func TestEncodeDecodeEncodeIsByteIdentical(t *testing.T) {
	r := sampleReceipt()
	b1 := r.Encode()
	decoded, err := Decode(b1)
	require.NoError(t, err)
	b2 := decoded.Encode()
	require.Equal(t, b1, b2)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	b := sampleReceipt().Encode()
	b[0] = 'x'
	_, err := Decode(b)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	b := sampleReceipt().Encode()
	// version field is bytes [8:12), little-endian; bump it to 1.
	b[8] = 1
	b[9] = 0
	b[10] = 0
	b[11] = 0
	_, err := Decode(b)
	require.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	b := sampleReceipt().Encode()
	_, err := Decode(b[:len(b)-5])
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeRejectsEmptyInput(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)
}

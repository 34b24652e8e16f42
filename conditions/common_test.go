package conditions

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	testPrivKey, testPubKey = btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x2a}, 32))

	testMsgHash = sha256.Sum256([]byte("crypto-conditions"))
)

// node writes one DER element into a builder.
type node func(b *cryptobyte.Builder)

func leaf(tag uint8, content []byte) node {
	return func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.Tag(tag).ContextSpecific(), func(c *cryptobyte.Builder) {
			c.AddBytes(content)
		})
	}
}

func container(tag uint8, children ...node) node {
	return func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.Tag(tag).ContextSpecific().Constructed(), func(c *cryptobyte.Builder) {
			for _, child := range children {
				child(c)
			}
		})
	}
}

func encode(t *testing.T, nodes ...node) []byte {
	t.Helper()

	b := cryptobyte.NewBuilder(nil)
	for _, n := range nodes {
		n(b)
	}
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func preimageNode(preimage []byte) node {
	return container(uint8(TypePreimage), leaf(0, preimage))
}

func evalNode(code []byte) node {
	return container(uint8(TypeEval), leaf(0, code))
}

func secp256k1Node(t ConditionType, pubKey, sig []byte) node {
	return container(uint8(t), leaf(0, pubKey), leaf(1, sig))
}

func thresholdNode(ffills []node, conds []node) node {
	return container(uint8(TypeThreshold),
		container(0, ffills...),
		container(1, conds...),
	)
}

func compactNode(t ConditionType, fp, cost, subtypes []byte) node {
	children := []node{leaf(0, fp), leaf(1, cost)}
	if subtypes != nil {
		children = append(children, leaf(2, subtypes))
	}
	return container(uint8(t), children...)
}

// testSignature returns a compact R || S signature by testPrivKey and the
// signature it parses to.
func testSignature(t *testing.T) ([]byte, *ecdsa.Signature) {
	t.Helper()

	compact, err := ecdsa.SignCompact(testPrivKey, testMsgHash[:], true)
	require.NoError(t, err)
	require.Len(t, compact, 65)

	raw := compact[1:]
	var r, s btcec.ModNScalar
	require.False(t, r.SetByteSlice(raw[:32]))
	require.False(t, s.SetByteSlice(raw[32:]))
	return raw, ecdsa.NewSignature(&r, &s)
}

func fingerprint(seed byte, size int) []byte {
	return bytes.Repeat([]byte{seed}, size)
}

func requireDecodeError(t *testing.T, err error, code ErrorCode) {
	t.Helper()

	require.Error(t, err)
	derr, ok := err.(DecodeError)
	require.True(t, ok, "unexpected error type - got %T, want %T", err, DecodeError{})
	require.Equal(t, code, derr.ErrorCode, "unexpected error code - got %s (%s), want %s",
		derr.ErrorCode, derr.Description, code)
}

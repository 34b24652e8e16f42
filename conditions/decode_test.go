package conditions

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePreimage(t *testing.T) {
	buf := encode(t, preimageNode([]byte("open sesame")))

	cond, err := DecodeFulfillment(buf, 0)
	require.NoError(t, err)

	preimage, ok := cond.(*Preimage)
	require.True(t, ok, "got %T", cond)
	assert.Equal(t, []byte("open sesame"), preimage.Preimage)
	assert.Equal(t, TypePreimage, cond.Type())
}

func TestDecodePreimageDoesNotAliasInput(t *testing.T) {
	buf := encode(t, preimageNode([]byte("abc")))

	cond, err := DecodeFulfillment(buf, 0)
	require.NoError(t, err)

	for i := range buf {
		buf[i] = 0
	}
	assert.Equal(t, []byte("abc"), cond.(*Preimage).Preimage)
}

func TestDecodeEval(t *testing.T) {
	buf := encode(t, evalNode([]byte{0xe4, 0x01, 0x02}))

	cond, err := DecodeFulfillment(buf, 0)
	require.NoError(t, err)

	eval, ok := cond.(*Eval)
	require.True(t, ok, "got %T", cond)
	assert.Equal(t, []byte{0xe4, 0x01, 0x02}, eval.Code)
}

func TestDecodeSecp256k1(t *testing.T) {
	rawSig, sig := testSignature(t)
	buf := encode(t, secp256k1Node(TypeSecp256k1,
		testPubKey.SerializeCompressed(), rawSig))

	cond, err := DecodeFulfillment(buf, 0)
	require.NoError(t, err)

	secp, ok := cond.(*Secp256k1)
	require.True(t, ok, "got %T", cond)
	assert.True(t, secp.PubKey.IsEqual(testPubKey))
	require.NotNil(t, secp.Signature)
	assert.True(t, secp.Signature.IsEqual(sig))
	assert.True(t, secp.Signature.Verify(testMsgHash[:], secp.PubKey))
}

func TestDecodeSecp256k1UncompressedKey(t *testing.T) {
	rawSig, _ := testSignature(t)
	buf := encode(t, secp256k1Node(TypeSecp256k1,
		testPubKey.SerializeUncompressed(), rawSig))

	cond, err := DecodeFulfillment(buf, 0)
	require.NoError(t, err)
	assert.True(t, cond.(*Secp256k1).PubKey.IsEqual(testPubKey))
}

func TestDecodeSecp256k1Hash(t *testing.T) {
	rawSig, sig := testSignature(t)
	buf := encode(t, secp256k1Node(TypeSecp256k1Hash,
		testPubKey.SerializeCompressed(), rawSig))

	cond, err := DecodeFulfillment(buf, 0)
	require.NoError(t, err)

	secp, ok := cond.(*Secp256k1Hash)
	require.True(t, ok, "got %T", cond)
	assert.Equal(t, TypeSecp256k1Hash, cond.Type())
	assert.True(t, secp.PubKey.IsEqual(testPubKey))
	assert.True(t, secp.Signature.IsEqual(sig))

	_, ok = secp.PubKeyHash()
	assert.False(t, ok, "decoded pubkey hash must be unset")

	derived := secp.WithPubKeyHash()
	hash, ok := derived.PubKeyHash()
	require.True(t, ok)
	assert.Equal(t, btcutil.Hash160(testPubKey.SerializeCompressed()), hash[:])

	_, ok = secp.PubKeyHash()
	assert.False(t, ok, "WithPubKeyHash must not modify the receiver")
}

func TestWithPubKeyHashWithoutKey(t *testing.T) {
	c := &Secp256k1Hash{}
	_, ok := c.WithPubKeyHash().PubKeyHash()
	assert.False(t, ok)
}

func TestDecodeSecp256k1InvalidKey(t *testing.T) {
	rawSig, _ := testSignature(t)

	offCurve := make([]byte, 65)
	offCurve[0] = 0x04
	offCurve[32] = 0x01
	offCurve[64] = 0x01

	tests := []struct {
		name string
		key  []byte
	}{
		{
			name: "x not in field",
			key:  append([]byte{0x02}, bytes.Repeat([]byte{0xff}, 32)...),
		},
		{
			name: "point off curve",
			key:  offCurve,
		},
		{
			name: "bad length",
			key:  testPubKey.SerializeCompressed()[:20],
		},
		{
			name: "empty",
			key:  []byte{},
		},
	}

	for _, ct := range []ConditionType{TypeSecp256k1, TypeSecp256k1Hash} {
		for _, test := range tests {
			t.Run(ct.String()+"/"+test.name, func(t *testing.T) {
				buf := encode(t, secp256k1Node(ct, test.key, rawSig))

				cond, err := DecodeFulfillment(buf, 0)
				requireDecodeError(t, err, ErrInvalidPubKey)
				assert.Nil(t, cond)
			})
		}
	}
}

func TestDecodeSecp256k1InvalidSignature(t *testing.T) {
	rawSig, _ := testSignature(t)
	key := testPubKey.SerializeCompressed()

	highR := append(bytes.Repeat([]byte{0xff}, 32), rawSig[32:]...)
	highS := append(append([]byte(nil), rawSig[:32]...), bytes.Repeat([]byte{0xff}, 32)...)

	tests := []struct {
		name string
		sig  []byte
	}{
		{name: "R overflows", sig: highR},
		{name: "S overflows", sig: highS},
		{name: "short", sig: rawSig[:63]},
		{name: "long", sig: append(append([]byte(nil), rawSig...), 0x00)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := encode(t, secp256k1Node(TypeSecp256k1, key, test.sig))

			cond, err := DecodeFulfillment(buf, 0)
			requireDecodeError(t, err, ErrInvalidSignature)
			assert.Nil(t, cond)
		})
	}
}

func TestDecodeSecp256k1MissingSignature(t *testing.T) {
	buf := encode(t, container(uint8(TypeSecp256k1),
		leaf(0, testPubKey.SerializeCompressed())))

	_, err := DecodeFulfillment(buf, 0)
	requireDecodeError(t, err, ErrMissingElement)
}

func TestDecodeFulfillmentTrailingElement(t *testing.T) {
	rawSig, _ := testSignature(t)
	key := testPubKey.SerializeCompressed()

	fulfillments := map[string]node{
		"preimage":      preimageNode([]byte("x")),
		"eval":          evalNode([]byte("code")),
		"secp256k1":     secp256k1Node(TypeSecp256k1, key, rawSig),
		"secp256k1hash": secp256k1Node(TypeSecp256k1Hash, key, rawSig),
		"threshold": thresholdNode(
			[]node{preimageNode([]byte("y"))},
			[]node{compactNode(TypeEval, fingerprint(1, 32), []byte{0x01}, nil)},
		),
	}

	for name, ffill := range fulfillments {
		t.Run(name, func(t *testing.T) {
			valid := encode(t, ffill)
			_, err := DecodeFulfillment(valid, 0)
			require.NoError(t, err)

			trailing := encode(t, ffill, leaf(0, []byte{0x00}))
			cond, err := DecodeFulfillment(trailing, 0)
			requireDecodeError(t, err, ErrLeftover)
			assert.Nil(t, cond)

			partial := append(append([]byte(nil), valid...), 0x00)
			cond, err = DecodeFulfillment(partial, 0)
			requireDecodeError(t, err, ErrMalformed)
			assert.Nil(t, cond)
		})
	}
}

func TestDecodeFulfillmentInnerLeftover(t *testing.T) {
	tests := []struct {
		name  string
		ffill node
	}{
		{
			name:  "preimage",
			ffill: container(uint8(TypePreimage), leaf(0, []byte("a")), leaf(1, []byte("b"))),
		},
		{
			name:  "eval",
			ffill: container(uint8(TypeEval), leaf(0, []byte("a")), leaf(0, []byte("b"))),
		},
		{
			name: "threshold",
			ffill: container(uint8(TypeThreshold),
				container(0, preimageNode([]byte("a"))),
				container(1),
				container(2),
			),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeFulfillment(encode(t, test.ffill), 0)
			requireDecodeError(t, err, ErrLeftover)
		})
	}
}

func TestDecodeFulfillmentErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		code ErrorCode
	}{
		{
			name: "empty buffer",
			buf:  nil,
			code: ErrMissingElement,
		},
		{
			name: "garbage",
			buf:  []byte{0xa0, 0x05, 0x80},
			code: ErrMalformed,
		},
		{
			name: "malformed inner",
			buf:  []byte{0xa0, 0x02, 0x80, 0x05},
			code: ErrMalformed,
		},
		{
			name: "prefix has no fulfillment decoder",
			buf:  encode(t, container(uint8(TypePrefix), leaf(0, []byte("a")))),
			code: ErrInvalidCondition,
		},
		{
			name: "unregistered tag",
			buf:  encode(t, container(3, leaf(0, []byte("a")))),
			code: ErrInvalidCondition,
		},
		{
			name: "universal element",
			buf:  []byte{0x02, 0x01, 0x05},
			code: ErrUnexpectedStructure,
		},
		{
			name: "tag beyond a byte",
			buf:  []byte{0xbf, 0x82, 0x00, 0x00},
			code: ErrUnexpectedStructure,
		},
		{
			name: "wrong leaf tag",
			buf:  encode(t, container(uint8(TypePreimage), leaf(1, []byte("a")))),
			code: ErrUnexpectedTag,
		},
		{
			name: "missing preimage",
			buf:  encode(t, container(uint8(TypePreimage))),
			code: ErrMissingElement,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cond, err := DecodeFulfillment(test.buf, 0)
			requireDecodeError(t, err, test.code)
			assert.Nil(t, cond)
		})
	}
}

func TestDecodeFulfillmentWrongTagMessage(t *testing.T) {
	buf := encode(t, container(uint8(TypeEval), leaf(3, []byte("a"))))

	_, err := DecodeFulfillment(buf, 0)
	require.EqualError(t, err, "wrong tag, expected 0 but got 3")
}

func TestDecodeCondition(t *testing.T) {
	fp := fingerprint(0xab, 32)
	buf := encode(t, compactNode(TypePreimage, fp, []byte{0x20}, nil))

	cond, err := DecodeCondition(buf)
	require.NoError(t, err)
	assert.Equal(t, TypePreimage, cond.CondType)
	assert.Equal(t, TypePreimage, cond.Type())
	assert.Equal(t, fp, cond.Fingerprint)
	assert.Equal(t, uint64(32), cond.Cost)
	assert.Equal(t, 0, cond.Subtypes.Len())
}

func TestDecodeConditionPadsSecp256k1Hash(t *testing.T) {
	fp := fingerprint(0x11, 20)
	buf := encode(t, compactNode(TypeSecp256k1Hash, fp, []byte{0x02, 0x00, 0x00}, nil))

	cond, err := DecodeCondition(buf)
	require.NoError(t, err)
	require.Len(t, cond.Fingerprint, FingerprintSize)
	assert.Equal(t, fp, cond.Fingerprint[:20])
	assert.Equal(t, make([]byte, 12), cond.Fingerprint[20:])
	assert.Equal(t, uint64(131072), cond.Cost)
}

func TestDecodeConditionSubtypes(t *testing.T) {
	// bits 0, 5, 6 in the first octet and bit 15 in the second.
	subtypes := []byte{0x00, 0x86, 0x01}
	buf := encode(t, compactNode(TypeThreshold, fingerprint(0x01, 32), []byte{0x01, 0x00}, subtypes))

	cond, err := DecodeCondition(buf)
	require.NoError(t, err)
	assert.Equal(t, TypeThreshold, cond.CondType)
	assert.Equal(t, uint64(256), cond.Cost)
	assert.Equal(t, []ConditionType{
		TypePreimage, TypeSecp256k1, TypeSecp256k1Hash, TypeEval,
	}, cond.Subtypes.Types())
}

func TestDecodeConditionRequiresSubtypes(t *testing.T) {
	buf := encode(t, compactNode(TypeThreshold, fingerprint(0x01, 32), []byte{0x01}, nil))

	_, err := DecodeCondition(buf)
	requireDecodeError(t, err, ErrMissingElement)
}

func TestDecodeConditionCost(t *testing.T) {
	tests := []struct {
		name string
		cost []byte
		want uint64
		code ErrorCode
		fail bool
	}{
		{name: "empty is zero", cost: []byte{}, want: 0},
		{name: "single octet", cost: []byte{0x7f}, want: 127},
		{name: "positive with sign octet", cost: []byte{0x00, 0x80}, want: 128},
		{
			name: "max uint64",
			cost: append([]byte{0x00}, bytes.Repeat([]byte{0xff}, 8)...),
			want: ^uint64(0),
		},
		{
			name: "redundant leading zeros",
			cost: []byte{0x00, 0x00, 0x00, 0x01},
			want: 1,
		},
		{
			name: "2^64",
			cost: append([]byte{0x01}, make([]byte, 8)...),
			code: ErrCostOverflow,
			fail: true,
		},
		{
			name: "negative",
			cost: []byte{0xff},
			code: ErrCostOverflow,
			fail: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := encode(t, compactNode(TypeEval, fingerprint(0x0e, 32), test.cost, nil))

			cond, err := DecodeCondition(buf)
			if test.fail {
				requireDecodeError(t, err, test.code)
				assert.Nil(t, cond)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, cond.Cost)
		})
	}
}

func TestDecodeConditionErrors(t *testing.T) {
	fp := fingerprint(0x01, 32)

	tests := []struct {
		name string
		buf  []byte
		code ErrorCode
	}{
		{
			name: "empty buffer",
			buf:  nil,
			code: ErrMissingElement,
		},
		{
			name: "unknown type",
			buf:  encode(t, compactNode(3, fp, []byte{0x01}, nil)),
			code: ErrUnknownType,
		},
		{
			name: "two conditions",
			buf: encode(t,
				compactNode(TypePreimage, fp, []byte{0x01}, nil),
				compactNode(TypePreimage, fp, []byte{0x01}, nil),
			),
			code: ErrLeftover,
		},
		{
			name: "subtypes on a leaf type",
			buf:  encode(t, compactNode(TypePreimage, fp, []byte{0x01}, []byte{0x00, 0x80})),
			code: ErrLeftover,
		},
		{
			name: "missing cost",
			buf:  encode(t, container(uint8(TypePreimage), leaf(0, fp))),
			code: ErrMissingElement,
		},
		{
			name: "fields swapped",
			buf:  encode(t, container(uint8(TypePreimage), leaf(1, []byte{0x01}), leaf(0, fp))),
			code: ErrUnexpectedTag,
		},
		{
			name: "malformed",
			buf:  []byte{0xa0, 0x81},
			code: ErrMalformed,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cond, err := DecodeCondition(test.buf)
			requireDecodeError(t, err, test.code)
			assert.Nil(t, cond)
		})
	}
}

// kindVisitor records which Visitor method was called.
type kindVisitor struct {
	kinds []string
}

func (v *kindVisitor) VisitPreimage(*Preimage) error {
	v.kinds = append(v.kinds, "preimage")
	return nil
}

func (v *kindVisitor) VisitSecp256k1(*Secp256k1) error {
	v.kinds = append(v.kinds, "secp256k1")
	return nil
}

func (v *kindVisitor) VisitSecp256k1Hash(*Secp256k1Hash) error {
	v.kinds = append(v.kinds, "secp256k1hash")
	return nil
}

func (v *kindVisitor) VisitThreshold(c *Threshold) error {
	v.kinds = append(v.kinds, "threshold")
	for _, sub := range c.Subconditions {
		if err := sub.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *kindVisitor) VisitEval(*Eval) error {
	v.kinds = append(v.kinds, "eval")
	return nil
}

func (v *kindVisitor) VisitAnon(*Anon) error {
	v.kinds = append(v.kinds, "anon")
	return nil
}

func TestDecodeConditionIsAlwaysCompact(t *testing.T) {
	types := []ConditionType{
		TypePreimage, TypePrefix, TypeThreshold, TypeSecp256k1,
		TypeSecp256k1Hash, TypeEval,
	}

	for _, ct := range types {
		var subtypes []byte
		if ct.HasSubtypes() {
			subtypes = []byte{0x07, 0x80}
		}
		buf := encode(t, compactNode(ct, fingerprint(0x33, 32), []byte{0x01}, subtypes))

		cond, err := DecodeCondition(buf)
		require.NoError(t, err, ct.String())

		v := &kindVisitor{}
		require.NoError(t, cond.Accept(v))
		assert.Equal(t, []string{"anon"}, v.kinds, ct.String())
		assert.Equal(t, ct, cond.Type())
	}
}

func TestVisitorWalksTree(t *testing.T) {
	rawSig, _ := testSignature(t)
	key := testPubKey.SerializeCompressed()

	buf := encode(t, thresholdNode(
		[]node{
			secp256k1Node(TypeSecp256k1, key, rawSig),
			thresholdNode(
				[]node{evalNode([]byte("e"))},
				[]node{compactNode(TypePreimage, fingerprint(1, 32), []byte{0x01}, nil)},
			),
			secp256k1Node(TypeSecp256k1Hash, key, rawSig),
		},
		nil,
	))

	cond, err := DecodeFulfillment(buf, 0)
	require.NoError(t, err)

	v := &kindVisitor{}
	require.NoError(t, cond.Accept(v))
	assert.Equal(t, []string{
		"threshold", "secp256k1", "threshold", "eval", "anon", "secp256k1hash",
	}, v.kinds)
}

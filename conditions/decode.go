package conditions

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

const (
	compactSigSize = 64
	scalarSize     = 32
)

// decoder carries the options and current threshold depth of one top-level
// decode call.
type decoder struct {
	opts  Options
	depth int
}

// DecodeFulfillment decodes a DER encoded fulfillment. flags is a bit field,
// see FlagMixedMode.
func DecodeFulfillment(buf []byte, flags uint32) (Condition, error) {
	return DecodeFulfillmentWithOptions(buf, OptionsFromFlags(flags))
}

// DecodeFulfillmentWithOptions is like DecodeFulfillment but takes the
// decoding options directly.
func DecodeFulfillmentWithOptions(buf []byte, opts Options) (Condition, error) {
	r, err := NewReader(buf)
	if err != nil {
		log.Debugf("Rejected fulfillment: %v", err)
		return nil, err
	}

	d := &decoder{opts: opts}
	cond, err := d.fulfillment(r)
	if err == nil {
		err = r.AssertEmpty()
	}
	if err != nil {
		log.Debugf("Rejected fulfillment: %v", err)
		return nil, err
	}

	return cond, nil
}

// DecodeCondition decodes a DER encoded condition into its compact form.
func DecodeCondition(buf []byte) (*Anon, error) {
	cond, err := decodeCondition(buf)
	if err != nil {
		log.Debugf("Rejected condition: %v", err)
		return nil, err
	}
	return cond, nil
}

func decodeCondition(buf []byte) (*Anon, error) {
	r, err := NewReader(buf)
	if err != nil {
		return nil, err
	}

	tag, inner, err := r.TakeAny()
	if err != nil {
		return nil, err
	}
	condType, err := TypeFromID(tag)
	if err != nil {
		return nil, err
	}
	if err := r.AssertEmpty(); err != nil {
		return nil, err
	}

	return compactBody(condType, inner)
}

// compactCondition decodes one compact condition element from r.
func compactCondition(r *Reader) (*Anon, error) {
	tag, inner, err := r.TakeAny()
	if err != nil {
		return nil, err
	}
	condType, err := TypeFromID(tag)
	if err != nil {
		return nil, err
	}

	return compactBody(condType, inner)
}

func compactBody(condType ConditionType, r *Reader) (*Anon, error) {
	fp, err := r.TakeLeaf(0)
	if err != nil {
		return nil, err
	}

	rawCost, err := r.TakeLeaf(1)
	if err != nil {
		return nil, err
	}
	cost, err := parseCost(rawCost)
	if err != nil {
		return nil, err
	}

	var subtypes TypeSet
	if condType.HasSubtypes() {
		rawSubtypes, err := r.TakeLeaf(2)
		if err != nil {
			return nil, err
		}
		subtypes = unpackTypeSet(rawSubtypes)
	}

	if err := r.AssertEmpty(); err != nil {
		return nil, err
	}

	return &Anon{
		CondType:    condType,
		Fingerprint: PadFingerprint(fp, condType),
		Cost:        cost,
		Subtypes:    subtypes,
	}, nil
}

// parseCost reads a big-endian two's complement integer that must be
// non-negative and fit in 64 bits. Redundant leading zero octets are
// accepted.
func parseCost(b []byte) (uint64, error) {
	if len(b) > 0 && b[0]&0x80 != 0 {
		return 0, decodeError(ErrCostOverflow, "can't decode cost: negative value", nil)
	}
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	if len(b) > 8 {
		str := fmt.Sprintf("can't decode cost: %d octets do not fit in 64 bits", len(b))
		return 0, decodeError(ErrCostOverflow, str, nil)
	}

	var cost uint64
	for _, c := range b {
		cost = cost<<8 | uint64(c)
	}
	return cost, nil
}

// fulfillment decodes one fulfillment element from r.
func (d *decoder) fulfillment(r *Reader) (Condition, error) {
	tag, inner, err := r.TakeAny()
	if err != nil {
		return nil, err
	}

	log.Tracef("Decoding fulfillment tag %d at depth %d", tag, d.depth)

	var cond Condition
	switch ConditionType(tag) {
	case TypePreimage:
		cond, err = decodePreimage(inner)
	case TypeThreshold:
		cond, err = d.threshold(inner)
	case TypeSecp256k1:
		cond, err = decodeSecp256k1(inner)
	case TypeSecp256k1Hash:
		cond, err = decodeSecp256k1Hash(inner)
	case TypeEval:
		cond, err = decodeEval(inner)
	default:
		str := fmt.Sprintf("invalid condition ASN: no fulfillment "+
			"with tag %d", tag)
		return nil, decodeError(ErrInvalidCondition, str, nil)
	}
	if err != nil {
		return nil, err
	}

	if err := inner.AssertEmpty(); err != nil {
		return nil, err
	}
	return cond, nil
}

func decodePreimage(r *Reader) (*Preimage, error) {
	preimage, err := r.TakeLeaf(0)
	if err != nil {
		return nil, err
	}
	return &Preimage{Preimage: preimage}, nil
}

func decodeEval(r *Reader) (*Eval, error) {
	code, err := r.TakeLeaf(0)
	if err != nil {
		return nil, err
	}
	return &Eval{Code: code}, nil
}

func decodeSecp256k1(r *Reader) (*Secp256k1, error) {
	pubKey, sig, err := decodeKeyAndSignature(r)
	if err != nil {
		return nil, err
	}
	return &Secp256k1{PubKey: pubKey, Signature: sig}, nil
}

// decodeSecp256k1Hash shares the secp256k1 layout. The public key hash is
// left unset.
func decodeSecp256k1Hash(r *Reader) (*Secp256k1Hash, error) {
	pubKey, sig, err := decodeKeyAndSignature(r)
	if err != nil {
		return nil, err
	}
	return &Secp256k1Hash{PubKey: pubKey, Signature: sig}, nil
}

func decodeKeyAndSignature(r *Reader) (*btcec.PublicKey, *ecdsa.Signature, error) {
	rawKey, err := r.TakeLeaf(0)
	if err != nil {
		return nil, nil, err
	}
	rawSig, err := r.TakeLeaf(1)
	if err != nil {
		return nil, nil, err
	}

	pubKey, err := btcec.ParsePubKey(rawKey)
	if err != nil {
		return nil, nil, decodeError(ErrInvalidPubKey,
			"bad secp256k1 public key", err)
	}

	sig, err := parseCompactSignature(rawSig)
	if err != nil {
		return nil, nil, decodeError(ErrInvalidSignature,
			"bad secp256k1 signature", err)
	}

	return pubKey, sig, nil
}

// parseCompactSignature parses a 64 byte R || S signature. Both scalars
// must be below the group order.
func parseCompactSignature(b []byte) (*ecdsa.Signature, error) {
	if len(b) != compactSigSize {
		return nil, fmt.Errorf("signature is %d bytes, expected %d",
			len(b), compactSigSize)
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(b[:scalarSize]); overflow {
		return nil, errors.New("signature R is >= curve order")
	}
	if overflow := s.SetByteSlice(b[scalarSize:]); overflow {
		return nil, errors.New("signature S is >= curve order")
	}

	return ecdsa.NewSignature(&r, &s), nil
}

package conditions

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
)

// PubKeyHashSize is the size of a secp256k1hash public key hash.
const PubKeyHashSize = 20

// Condition is a decoded condition or fulfillment. The set of
// implementations is closed: *Preimage, *Secp256k1, *Secp256k1Hash,
// *Threshold, *Eval and *Anon.
type Condition interface {
	// Type returns the condition type. For *Anon this is the type of the
	// condition it commits to.
	Type() ConditionType

	// Accept calls the Visitor method matching the concrete variant.
	Accept(v Visitor) error

	condition()
}

// Visitor has one method per Condition variant.
type Visitor interface {
	VisitPreimage(c *Preimage) error
	VisitSecp256k1(c *Secp256k1) error
	VisitSecp256k1Hash(c *Secp256k1Hash) error
	VisitThreshold(c *Threshold) error
	VisitEval(c *Eval) error
	VisitAnon(c *Anon) error
}

var (
	_ Condition = (*Preimage)(nil)
	_ Condition = (*Secp256k1)(nil)
	_ Condition = (*Secp256k1Hash)(nil)
	_ Condition = (*Threshold)(nil)
	_ Condition = (*Eval)(nil)
	_ Condition = (*Anon)(nil)
)

type Preimage struct {
	Preimage []byte
}

type Secp256k1 struct {
	PubKey *btcec.PublicKey

	// Signature is nil until the condition is fulfilled.
	Signature *ecdsa.Signature
}

type Secp256k1Hash struct {
	PubKey    *btcec.PublicKey
	Signature *ecdsa.Signature

	pubKeyHash    [PubKeyHashSize]byte
	hasPubKeyHash bool
}

type Threshold struct {
	Threshold     uint16
	Subconditions []Condition
}

type Eval struct {
	Code []byte
}

// Anon is the compact form of a condition: its fingerprint, cost and the
// condition types found below it. It never carries fulfillment data.
type Anon struct {
	CondType    ConditionType
	Fingerprint []byte
	Cost        uint64
	Subtypes    TypeSet
}

func (c *Preimage) Type() ConditionType      { return TypePreimage }
func (c *Secp256k1) Type() ConditionType     { return TypeSecp256k1 }
func (c *Secp256k1Hash) Type() ConditionType { return TypeSecp256k1Hash }
func (c *Threshold) Type() ConditionType     { return TypeThreshold }
func (c *Eval) Type() ConditionType          { return TypeEval }
func (c *Anon) Type() ConditionType          { return c.CondType }

func (c *Preimage) Accept(v Visitor) error      { return v.VisitPreimage(c) }
func (c *Secp256k1) Accept(v Visitor) error     { return v.VisitSecp256k1(c) }
func (c *Secp256k1Hash) Accept(v Visitor) error { return v.VisitSecp256k1Hash(c) }
func (c *Threshold) Accept(v Visitor) error     { return v.VisitThreshold(c) }
func (c *Eval) Accept(v Visitor) error          { return v.VisitEval(c) }
func (c *Anon) Accept(v Visitor) error          { return v.VisitAnon(c) }

func (*Preimage) condition()      {}
func (*Secp256k1) condition()     {}
func (*Secp256k1Hash) condition() {}
func (*Threshold) condition()     {}
func (*Eval) condition()          {}
func (*Anon) condition()          {}

// PubKeyHash returns the public key hash and whether it has been derived.
func (c *Secp256k1Hash) PubKeyHash() ([PubKeyHashSize]byte, bool) {
	return c.pubKeyHash, c.hasPubKeyHash
}

// WithPubKeyHash returns a copy of c with the public key hash derived as
// RIPEMD160(SHA256(compressed public key)). Without a public key the copy
// is returned unchanged.
func (c *Secp256k1Hash) WithPubKeyHash() *Secp256k1Hash {
	cp := *c
	if cp.PubKey == nil {
		return &cp
	}

	copy(cp.pubKeyHash[:], btcutil.Hash160(cp.PubKey.SerializeCompressed()))
	cp.hasPubKeyHash = true
	return &cp
}

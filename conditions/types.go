package conditions

import (
	"fmt"
	"math/bits"
)

// ConditionType is the wire id of a condition type.
type ConditionType uint8

const (
	TypePreimage      ConditionType = 0
	TypePrefix        ConditionType = 1
	TypeThreshold     ConditionType = 2
	TypeSecp256k1     ConditionType = 5
	TypeSecp256k1Hash ConditionType = 6
	TypeEval          ConditionType = 15

	// TypeAnon marks a condition that is already in compact form.
	TypeAnon ConditionType = 255
)

// TypeFromID maps a wire id to its condition type.
func TypeFromID(id uint8) (ConditionType, error) {
	switch t := ConditionType(id); t {
	case TypePreimage, TypePrefix, TypeThreshold, TypeSecp256k1,
		TypeSecp256k1Hash, TypeEval, TypeAnon:

		return t, nil
	}

	str := fmt.Sprintf("unknown condition type id: %d", id)
	return 0, decodeError(ErrUnknownType, str, nil)
}

// HasSubtypes reports whether conditions of this type can embed other
// condition types and therefore carry a subtype set in compact form.
func (t ConditionType) HasSubtypes() bool {
	switch t {
	case TypeThreshold, TypePrefix:
		return true
	}
	return false
}

func (t ConditionType) String() string {
	switch t {
	case TypePreimage:
		return "preimage-sha-256"
	case TypePrefix:
		return "prefix-sha-256"
	case TypeThreshold:
		return "threshold-sha-256"
	case TypeSecp256k1:
		return "secp256k1-sha-256"
	case TypeSecp256k1Hash:
		return "secp256k1hash-sha-256"
	case TypeEval:
		return "eval-sha-256"
	case TypeAnon:
		return "anon"
	}
	return fmt.Sprintf("ConditionType(%d)", uint8(t))
}

// TypeSet is a set of condition types. The zero value is empty.
type TypeSet struct {
	words [4]uint64
}

func NewTypeSet(types ...ConditionType) TypeSet {
	var s TypeSet
	for _, t := range types {
		s.Add(t)
	}
	return s
}

func (s *TypeSet) Add(t ConditionType) {
	s.words[t>>6] |= 1 << (t & 63)
}

func (s TypeSet) Has(t ConditionType) bool {
	return s.words[t>>6]&(1<<(t&63)) != 0
}

func (s TypeSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Types returns the members in ascending id order.
func (s TypeSet) Types() []ConditionType {
	types := make([]ConditionType, 0, s.Len())
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			types = append(types, ConditionType(i*64+b))
			w &= w - 1
		}
	}
	return types
}

// unpackTypeSet reads the content of a DER bit string. The leading octet
// holds the number of unused trailing bits and is skipped; bit k, counted
// from the most significant bit of the next octet, stands for type id k.
// Ids that are not registered condition types are ignored.
func unpackTypeSet(b []byte) TypeSet {
	var set TypeSet
	if len(b) < 2 {
		return set
	}

	for i, octet := range b[1:] {
		for j := 0; j < 8; j++ {
			if octet&(0x80>>j) == 0 {
				continue
			}
			id := i*8 + j
			if id > 0xff {
				return set
			}
			if t, err := TypeFromID(uint8(id)); err == nil {
				set.Add(t)
			}
		}
	}
	return set
}

// Package der splits a DER encoded buffer into its top-level tag/length/value
// elements. Element contents are not interpreted: a constructed element keeps
// its raw content bytes and can be handed back to Parse to walk one level
// deeper.
package der

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

type Class uint8

const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

var classStrings = map[Class]string{
	ClassUniversal:       "universal",
	ClassApplication:     "application",
	ClassContextSpecific: "context-specific",
	ClassPrivate:         "private",
}

func (c Class) String() string {
	if s, ok := classStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

const (
	constructedBit = 0x20
	highTagForm    = 0x1f

	// maxContentLen keeps lengths representable as int on 32-bit platforms.
	maxContentLen = math.MaxInt32
)

var (
	ErrTruncated = errors.New("truncated element")

	ErrIndefiniteLength = errors.New("indefinite length is not allowed in DER")

	ErrNonMinimalLength = errors.New("length is not minimally encoded")

	ErrNonMinimalTag = errors.New("tag number is not minimally encoded")

	ErrTagTooLarge = errors.New("tag number too large")

	ErrLengthTooLarge = errors.New("length too large")
)

// Element is a single tag/length/value unit.
type Element struct {
	Class       Class
	Constructed bool
	Tag         uint32

	// Content aliases the buffer given to Parse.
	Content []byte
}

// Parse reads every element of data in order. An empty buffer yields no
// elements. Any element that is not a complete, minimally encoded DER
// header followed by its full content fails the whole parse.
func Parse(data []byte) ([]Element, error) {
	s := cryptobyte.String(data)

	var elems []Element
	for !s.Empty() {
		elem, err := readElement(&s)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(elems), err)
		}
		elems = append(elems, elem)
	}

	return elems, nil
}

func readElement(s *cryptobyte.String) (Element, error) {
	var id uint8
	if !s.ReadUint8(&id) {
		return Element{}, ErrTruncated
	}

	elem := Element{
		Class:       Class(id >> 6),
		Constructed: id&constructedBit != 0,
		Tag:         uint32(id & highTagForm),
	}
	if elem.Tag == highTagForm {
		tag, err := readHighTag(s)
		if err != nil {
			return Element{}, err
		}
		elem.Tag = tag
	}

	length, err := readLength(s)
	if err != nil {
		return Element{}, err
	}

	if !s.ReadBytes(&elem.Content, length) {
		return Element{}, ErrTruncated
	}

	return elem, nil
}

// readHighTag reads the base-128 tag number following a 0x1f identifier
// octet (X.690 8.1.2.4).
func readHighTag(s *cryptobyte.String) (uint32, error) {
	var tag uint32
	for first := true; ; first = false {
		var b uint8
		if !s.ReadUint8(&b) {
			return 0, ErrTruncated
		}
		if first && b == 0x80 {
			return 0, ErrNonMinimalTag
		}
		if tag > math.MaxUint32>>7 {
			return 0, ErrTagTooLarge
		}
		tag = tag<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}

	// Tags below 31 must use the single octet form.
	if tag < highTagForm {
		return 0, ErrNonMinimalTag
	}
	return tag, nil
}

// readLength reads a definite length in short or long form (X.690 8.1.3)
// under the DER minimal encoding rules (X.690 10.1).
func readLength(s *cryptobyte.String) (int, error) {
	var b uint8
	if !s.ReadUint8(&b) {
		return 0, ErrTruncated
	}
	if b&0x80 == 0 {
		return int(b), nil
	}

	n := int(b & 0x7f)
	if n == 0 {
		return 0, ErrIndefiniteLength
	}
	if n > 4 {
		return 0, ErrLengthTooLarge
	}

	var raw []byte
	if !s.ReadBytes(&raw, n) {
		return 0, ErrTruncated
	}
	if raw[0] == 0 {
		return 0, ErrNonMinimalLength
	}

	var length uint64
	for _, c := range raw {
		length = length<<8 | uint64(c)
	}
	if length < 0x80 {
		return 0, ErrNonMinimalLength
	}
	if length > maxContentLen {
		return 0, ErrLengthTooLarge
	}

	return int(length), nil
}

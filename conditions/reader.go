package conditions

import (
	"bytes"
	"fmt"
	"math"

	"github.com/czh0526/cryptoconditions/der"
)

// Reader hands out the context-specific tagged elements of one nesting
// level in order. Elements are consumed left to right and never revisited.
type Reader struct {
	elems []der.Element
}

// NewReader tokenizes buf. An empty buffer gives an empty Reader.
func NewReader(buf []byte) (*Reader, error) {
	if len(buf) == 0 {
		return &Reader{}, nil
	}

	elems, err := der.Parse(buf)
	if err != nil {
		return nil, decodeError(ErrMalformed, "invalid DER data", err)
	}
	return &Reader{elems: elems}, nil
}

// Len returns the number of elements not yet taken.
func (r *Reader) Len() int {
	return len(r.elems)
}

func (r *Reader) next() (uint8, []byte, error) {
	if len(r.elems) == 0 {
		return 0, nil, decodeError(ErrMissingElement, "expected element", nil)
	}

	elem := r.elems[0]
	r.elems = r.elems[1:]

	if elem.Class != der.ClassContextSpecific {
		str := fmt.Sprintf("unexpected %v element with tag %d",
			elem.Class, elem.Tag)
		return 0, nil, decodeError(ErrUnexpectedStructure, str, nil)
	}
	if elem.Tag > math.MaxUint8 {
		str := fmt.Sprintf("invalid tag %d", elem.Tag)
		return 0, nil, decodeError(ErrUnexpectedStructure, str, nil)
	}

	return uint8(elem.Tag), elem.Content, nil
}

func (r *Reader) expect(tag uint8) ([]byte, error) {
	got, content, err := r.next()
	if err != nil {
		return nil, err
	}
	if got != tag {
		str := fmt.Sprintf("wrong tag, expected %d but got %d", tag, got)
		return nil, decodeError(ErrUnexpectedTag, str, nil)
	}
	return content, nil
}

// TakeLeaf takes the next element, which must carry tag, and returns a copy
// of its content.
func (r *Reader) TakeLeaf(tag uint8) ([]byte, error) {
	content, err := r.expect(tag)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(content), nil
}

// TakeContainer takes the next element, which must carry tag, and returns a
// Reader over its content.
func (r *Reader) TakeContainer(tag uint8) (*Reader, error) {
	content, err := r.expect(tag)
	if err != nil {
		return nil, err
	}
	return NewReader(content)
}

// TakeAny takes the next element whatever its tag.
func (r *Reader) TakeAny() (uint8, *Reader, error) {
	tag, content, err := r.next()
	if err != nil {
		return 0, nil, err
	}

	inner, err := NewReader(content)
	if err != nil {
		return 0, nil, err
	}
	return tag, inner, nil
}

// AssertEmpty fails if any element is left.
func (r *Reader) AssertEmpty() error {
	if n := len(r.elems); n != 0 {
		str := fmt.Sprintf("DER data has %d leftover elements", n)
		return decodeError(ErrLeftover, str, nil)
	}
	return nil
}

// takeMany applies fn until r is exhausted. Each call must take at least
// one element.
func takeMany[T any](r *Reader, fn func(*Reader) (T, error)) ([]T, error) {
	var out []T
	for r.Len() > 0 {
		before := r.Len()

		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		if r.Len() == before {
			return nil, decodeError(ErrUnexpectedStructure,
				"decoder did not consume any element", nil)
		}

		out = append(out, v)
	}
	return out, nil
}

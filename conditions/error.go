package conditions

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of decode failure.
type ErrorCode int

const (
	// ErrMalformed indicates the input is not a well formed sequence of
	// DER elements.
	ErrMalformed ErrorCode = iota

	// ErrMissingElement indicates an element was required but none remain
	// at the current nesting level.
	ErrMissingElement

	// ErrUnexpectedStructure indicates an element that is not a
	// context-specific tagged element, or whose tag does not fit a byte.
	ErrUnexpectedStructure

	// ErrUnexpectedTag indicates an element carried a different tag than
	// the one required at its position.
	ErrUnexpectedTag

	// ErrLeftover indicates elements remain after a structure was fully
	// decoded.
	ErrLeftover

	// ErrUnknownType indicates a condition type id outside the registry.
	ErrUnknownType

	// ErrInvalidCondition indicates a fulfillment with a tag that has no
	// fulfillment decoder.
	ErrInvalidCondition

	// ErrCostOverflow indicates a cost that is negative or does not fit in
	// 64 bits.
	ErrCostOverflow

	// ErrInvalidPubKey indicates a secp256k1 public key that failed to
	// parse.
	ErrInvalidPubKey

	// ErrInvalidSignature indicates a secp256k1 signature that failed to
	// parse.
	ErrInvalidSignature

	// ErrNoFulfillments indicates a mixed mode threshold without any
	// fulfillment to carry the threshold value.
	ErrNoFulfillments

	// ErrMixedModeCondition indicates a mixed mode threshold whose first
	// fulfillment is not a non-empty preimage.
	ErrMixedModeCondition

	// ErrMixedModeThreshold indicates a mixed mode threshold value larger
	// than the number of sub-conditions.
	ErrMixedModeThreshold

	// ErrThresholdOverflow indicates more fulfillments than a 16-bit
	// threshold can count.
	ErrThresholdOverflow

	// ErrDepthExceeded indicates threshold nesting deeper than the
	// configured limit.
	ErrDepthExceeded
)

var errorCodeStrings = map[ErrorCode]string{
	ErrMalformed:           "ErrMalformed",
	ErrMissingElement:      "ErrMissingElement",
	ErrUnexpectedStructure: "ErrUnexpectedStructure",
	ErrUnexpectedTag:       "ErrUnexpectedTag",
	ErrLeftover:            "ErrLeftover",
	ErrUnknownType:         "ErrUnknownType",
	ErrInvalidCondition:    "ErrInvalidCondition",
	ErrCostOverflow:        "ErrCostOverflow",
	ErrInvalidPubKey:       "ErrInvalidPubKey",
	ErrInvalidSignature:    "ErrInvalidSignature",
	ErrNoFulfillments:      "ErrNoFulfillments",
	ErrMixedModeCondition:  "ErrMixedModeCondition",
	ErrMixedModeThreshold:  "ErrMixedModeThreshold",
	ErrThresholdOverflow:   "ErrThresholdOverflow",
	ErrDepthExceeded:       "ErrDepthExceeded",
}

func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// DecodeError is returned by every decoding function in this package.
type DecodeError struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

func (e DecodeError) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(c ErrorCode, desc string, err error) DecodeError {
	return DecodeError{ErrorCode: c, Description: desc, Err: err}
}

// IsError reports whether err is a DecodeError carrying code.
func IsError(err error, code ErrorCode) bool {
	var derr DecodeError
	if !errors.As(err, &derr) {
		return false
	}
	return derr.ErrorCode == code
}

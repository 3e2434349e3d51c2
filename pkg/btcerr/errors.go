// Package btcerr defines the error taxonomy shared by every package in this
// module. All errors are values, never panics: malformed external bytes or
// caller misuse surface as a *btcerr.Error that callers can inspect with
// errors.As and compare by Kind.
package btcerr

import "fmt"

// Kind identifies one member of the error taxonomy. Kind values are stable
// and safe to switch on.
type Kind string

const (
	// Encoding errors.
	BadMagic        Kind = "bad_magic"
	VarintTooLarge  Kind = "varint_too_large"
	UnexpectedEOF   Kind = "unexpected_eof"
	BadWitnessFlag  Kind = "bad_witness_flag"
	DuplicateKey    Kind = "duplicate_key"
	InvalidBase58   Kind = "invalid_base58"
	BadChecksum     Kind = "bad_checksum"

	// Path / key errors.
	InvalidPath              Kind = "invalid_path"
	HardenedDerivationFailed Kind = "hardened_derivation_failed"
	InvalidChildIndex        Kind = "invalid_child_index"
	BadXKeyVersion           Kind = "bad_xkey_version"
	BadXKeyLength            Kind = "bad_xkey_length"

	// Sighash errors.
	NoneUnsupported  Kind = "none_unsupported"
	SighashSingleBug Kind = "sighash_single_bug"
	UnknownSighash   Kind = "unknown_sighash"

	// PSBT errors.
	InvalidPSBT           Kind = "invalid_psbt"
	MissingKey            Kind = "missing_key"
	WrongKeyType          Kind = "wrong_key_type"
	WrongKeyLength        Kind = "wrong_key_length"
	WrongValueLength      Kind = "wrong_value_length"
	InvalidBIP32Path      Kind = "invalid_bip32_path"
	MismatchedUnsignedTx  Kind = "mismatched_unsigned_tx"
	MismatchedValue       Kind = "mismatched_value"
	UnfinalizedInput      Kind = "unfinalized_input"
	UnfinalizableInput    Kind = "unfinalizable_input"

	// Crypto errors.
	BackendMissing       Kind = "backend_missing"
	VerifyFailed         Kind = "verify_failed"
	BadSignatureEncoding Kind = "bad_signature_encoding"
)

// Error is the concrete error type returned by every package in this
// module. Parameterized kinds populate Expected/Got/Index/Byte as
// documented per-Kind; unused fields stay at their zero value.
type Error struct {
	Kind     Kind
	Message  string
	Cause    error
	Expected int
	Got      int
	Index    int
	Byte     byte
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, btcerr.New(kind, "")) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a plain error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WrongKeyTypeErr builds a WrongKeyType error carrying the expected and
// observed key-type bytes.
func WrongKeyTypeErr(expected, got byte) *Error {
	return &Error{Kind: WrongKeyType, Expected: int(expected), Got: int(got),
		Message: fmt.Sprintf("expected key type %#x, got %#x", expected, got)}
}

// WrongKeyLengthErr builds a WrongKeyLength error carrying expected/got byte
// lengths.
func WrongKeyLengthErr(expected, got int) *Error {
	return &Error{Kind: WrongKeyLength, Expected: expected, Got: got,
		Message: fmt.Sprintf("expected key length %d, got %d", expected, got)}
}

// WrongValueLengthErr builds a WrongValueLength error carrying expected/got
// byte lengths.
func WrongValueLengthErr(expected, got int) *Error {
	return &Error{Kind: WrongValueLength, Expected: expected, Got: got,
		Message: fmt.Sprintf("expected value length %d, got %d", expected, got)}
}

// UnknownSighashErr builds an UnknownSighash error carrying the offending
// flag byte.
func UnknownSighashErr(flag byte) *Error {
	return &Error{Kind: UnknownSighash, Byte: flag,
		Message: fmt.Sprintf("unknown sighash flag %#x", flag)}
}

// UnfinalizedInputErr builds an UnfinalizedInput error carrying the input
// index.
func UnfinalizedInputErr(index int) *Error {
	return &Error{Kind: UnfinalizedInput, Index: index,
		Message: fmt.Sprintf("input %d is not finalized", index)}
}

// UnfinalizableInputErr builds an UnfinalizableInput error carrying the
// input index.
func UnfinalizableInputErr(index int) *Error {
	return &Error{Kind: UnfinalizableInput, Index: index,
		Message: fmt.Sprintf("input %d cannot be finalized", index)}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}

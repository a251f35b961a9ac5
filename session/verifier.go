package session

import "github.com/bugVanisher/signedvideo/common/errs"

// errNoVerifier is returned when a group's digest matched but no
// Verifier collaborator was configured to check the signature itself.
var errNoVerifier = errs.New(errs.CodeNotSupported, "no verifier configured")

// Verifier is the signature-verification / public-key collaborator the
// core calls out to (spec §1 "out of scope: concrete cryptographic
// primitives"; spec §6 external collaborator). Production callers supply
// a concrete implementation (ECDSA, Ed25519, ...); cmd/validate.go and
// the session tests each supply an Ed25519 one.
//
//go:generate mockgen -source=verifier.go -destination=mock_verifier.go -package=session
type Verifier interface {
	// Verify reports whether signature is a valid signature of message
	// under publicKey. A non-nil error indicates the key or signature
	// could not even be parsed, distinct from a clean "not authentic".
	Verify(publicKey, message, signature []byte) (bool, error)
}

// VendorHandle is the opaque vendor-specific extension handle (spec §3
// "Authenticator Session ... optional vendor-specific handle, opaque to
// the core"). The core only ever serializes what it returns here into
// the TLV vendor-tag range; it never interprets the bytes.
type VendorHandle interface {
	// Encode returns the vendor payload to carry in the signed SEI.
	Encode() []byte
}

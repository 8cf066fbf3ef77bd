package client

import (
	"errors"
	"fmt"

	"github.com/scanvault/api/internal/model"
)

// Vendor-specific envelope codes
const (
	kiriCodeJobNotFound      = 2001
	kiriCodeModelNotReady    = 2002
	kiriCodeModelUnavailable = 2006
)

// VendorError describes a failed vendor call. Kind is one of the model
// sentinels so callers can branch with errors.Is.
type VendorError struct {
	Kind       error
	Op         string
	HTTPStatus int
	Code       int
	Message    string
	Err        error
}

func (e *VendorError) Error() string {
	msg := fmt.Sprintf("kiri %s: %v", e.Op, e.Kind)
	if e.HTTPStatus != 0 {
		msg += fmt.Sprintf(" (http %d)", e.HTTPStatus)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VendorError) Is(target error) bool {
	return e.Kind == target
}

func (e *VendorError) Unwrap() error {
	return e.Err
}

// IsVendorError reports whether err carries any vendor failure kind.
func IsVendorError(err error) bool {
	var ve *VendorError
	return errors.As(err, &ve)
}

func unavailable(op string, status int, err error, msg string) *VendorError {
	return &VendorError{Kind: model.ErrVendorUnavailable, Op: op, HTTPStatus: status, Err: err, Message: msg}
}

func protocolError(op string, err error, msg string) *VendorError {
	return &VendorError{Kind: model.ErrVendorProtocol, Op: op, Err: err, Message: msg}
}

// rejected classifies a non-success envelope. Lookup operations translate the
// vendor's "unknown serialize" and "model not ready" codes.
func rejected(op string, code int, msg string, lookup, artifact bool) *VendorError {
	kind := model.ErrVendorRejected
	switch {
	case lookup && code == kiriCodeJobNotFound:
		kind = model.ErrJobNotFoundUpstream
	case artifact && (code == kiriCodeModelNotReady || code == kiriCodeModelUnavailable):
		kind = model.ErrArtifactNotReady
	}
	return &VendorError{Kind: kind, Op: op, Code: code, Message: msg}
}

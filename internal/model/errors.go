package model

import "errors"

// Error taxonomy shared by the vendor client, the services and the handlers.
var (
	// ErrVendorUnavailable is a transport or HTTP-level failure talking to the vendor. Retryable.
	ErrVendorUnavailable = errors.New("vendor unavailable")
	// ErrVendorRejected means the vendor answered but flagged the request as unsuccessful.
	ErrVendorRejected = errors.New("vendor rejected request")
	// ErrVendorProtocol means the vendor response did not have the expected shape.
	ErrVendorProtocol = errors.New("vendor protocol error")
	// ErrJobNotFoundUpstream means the vendor does not know the job id.
	ErrJobNotFoundUpstream = errors.New("job not found upstream")
	// ErrArtifactNotReady means the vendor has no downloadable model for the job yet.
	ErrArtifactNotReady = errors.New("artifact not ready")

	ErrJobNotFoundLocally     = errors.New("job not found")
	ErrSignatureInvalid       = errors.New("webhook signature invalid")
	ErrLocalPersistenceFailed = errors.New("local persistence failed")
)

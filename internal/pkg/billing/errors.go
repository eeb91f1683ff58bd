package billing

import "errors"

// Error taxonomy for webhook handling. Controllers map these onto HTTP
// statuses that drive Stripe's retry behavior.
var (
	// ErrInvalidPayloadType means the handler did not receive the raw request
	// body (a body-parsing middleware ran first). Config bug, 5xx.
	ErrInvalidPayloadType = errors.New("billing: webhook payload is empty or was consumed before verification")

	// ErrSignatureVerificationFailed means the payload does not verify under
	// the configured webhook secret. Untrusted caller, 4xx.
	ErrSignatureVerificationFailed = errors.New("billing: webhook signature verification failed")

	// ErrCustomerIdentityMismatch means a verified event references a customer
	// id that differs from the one stored on the resolved company. Treated as
	// a security fault: rejected and logged, state is never mutated.
	ErrCustomerIdentityMismatch = errors.New("billing: event customer id does not match company's stored customer id")

	// ErrCompanyNotFound is benign: the customer may belong to a deleted
	// company. The webhook is acknowledged so the provider does not retry.
	ErrCompanyNotFound = errors.New("billing: no company for stripe customer")
)

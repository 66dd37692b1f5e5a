package models

import "errors"

// Error taxonomy of the order lifecycle. Services return these sentinels
// (possibly wrapped) and handlers map them to HTTP statuses with errors.Is.
var (
	// ErrUnauthenticated means the request carried no usable buyer identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidAmount means the client-claimed amount disagrees with the
	// listing's canonical price beyond the configured tolerance.
	ErrInvalidAmount = errors.New("amount does not match listing price")

	// ErrGatewayUnavailable means the payment gateway could not be reached or
	// answered outside 2xx. Retryable: the order stays PENDING.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrUnknownOrder means a callback or lookup referenced an order this
	// service never issued.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrInvalidSignature means a webhook signature failed verification. The
	// callback must be inert: no state is mutated.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidTransition means the requested status change is not an edge
	// of the lifecycle graph, or lost a compare-and-set race.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrListingNotFound means the referenced listing does not exist or is
	// inactive.
	ErrListingNotFound = errors.New("listing not found")
)

package session

import (
	"errors"
)

var (
	// ErrInvalidCredential means the secret failed the provider's shape
	// check. No network call is made for a malformed secret.
	ErrInvalidCredential = errors.New("invalid credential format")

	// ErrAlreadyNegotiating guards against a second concurrent connect
	// attempt on the same orchestrator.
	ErrAlreadyNegotiating = errors.New("a connect attempt is already in flight")

	// ErrAlreadyConnected is returned when connect is called on an
	// active session.
	ErrAlreadyConnected = errors.New("session is already active")

	// ErrSessionEnded is returned when connect is called after the
	// session ended. A fresh orchestrator is required to reconnect.
	ErrSessionEnded = errors.New("session has ended")

	// ErrNegotiationTimeout means a network step of the negotiation
	// exceeded its deadline.
	ErrNegotiationTimeout = errors.New("negotiation timed out")

	// ErrNegotiationFailed covers every other negotiation failure:
	// rejected token, network error, malformed remote description,
	// cancellation by disconnect.
	ErrNegotiationFailed = errors.New("negotiation failed")
)

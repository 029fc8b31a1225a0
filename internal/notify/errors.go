package notify

import (
	"errors"
	"fmt"
)

// SendErrorKind classifies why a notification could not be delivered.
type SendErrorKind string

const (
	// KindAddress means a sender or recipient address did not parse.
	KindAddress SendErrorKind = "address"

	// KindTransport means the connection could not be set up: TLS
	// parameters, dialing or authentication.
	KindTransport SendErrorKind = "transport"

	// KindBuild means the MIME message could not be rendered.
	KindBuild SendErrorKind = "build"

	// KindDelivery means the server refused or aborted the transaction.
	KindDelivery SendErrorKind = "delivery"
)

// SendError reports a failed notification.
type SendError struct {
	Kind      SendErrorKind
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	if e.Recipient == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("sending to %s: %s error: %v", e.Recipient, e.Kind, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsSendError reports whether err (or any error in its chain) is a
// SendError.
func IsSendError(err error) bool {
	var sendErr *SendError
	return errors.As(err, &sendErr)
}

// KindOf returns the kind of the first SendError in err's chain, or ""
// when there is none.
func KindOf(err error) SendErrorKind {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Kind
	}
	return ""
}

package urlcheck

import (
	"context"
	goerrors "errors"

	"github.com/openshelf/curator/internal/transport"
	"github.com/openshelf/curator/pkg/errors"
)

// Policy is the configurable boundary between transient and terminal
// HTTP outcomes. The default treats 429 and all 5xx responses as
// transient and every other 4xx (403 included) as terminal.
type Policy struct {
	// TransientStatuses are additional status codes retried besides the
	// server-error range.
	TransientStatuses map[int]bool

	// RetryServerErrors keeps the whole 5xx range transient.
	RetryServerErrors bool
}

// DefaultPolicy returns the default transient/terminal table.
func DefaultPolicy() Policy {
	return Policy{
		TransientStatuses: map[int]bool{429: true},
		RetryServerErrors: true,
	}
}

// PolicyFromStatuses builds a policy from a configured status list,
// keeping the 5xx range transient.
func PolicyFromStatuses(statuses []int) Policy {
	p := Policy{
		TransientStatuses: make(map[int]bool, len(statuses)),
		RetryServerErrors: true,
	}
	for _, status := range statuses {
		p.TransientStatuses[status] = true
	}
	return p
}

// Classify implements transport.Classifier.
func (p Policy) Classify(statusCode int, err error) transport.Class {
	if err != nil {
		// Cancellation is terminal for this run; anything else at the
		// network level may resolve itself.
		if goerrors.Is(err, context.Canceled) || goerrors.Is(err, errors.ErrCanceled) {
			return transport.ClassTerminal
		}
		return transport.ClassTransient
	}

	switch {
	case statusCode >= 200 && statusCode < 400:
		return transport.ClassSuccess
	case p.TransientStatuses[statusCode]:
		return transport.ClassTransient
	case statusCode >= 500:
		if p.RetryServerErrors {
			return transport.ClassTransient
		}
		return transport.ClassTerminal
	default:
		return transport.ClassTerminal
	}
}

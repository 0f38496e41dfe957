package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Kind classifies a ledger failure so callers can react per category.
type Kind int

const (
	KindRemote Kind = iota
	KindCredentials
	KindAuthentication
	KindPermission
	KindNotFound
	KindRateLimit
	KindNetwork
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindCredentials:
		return "credentials"
	case KindAuthentication:
		return "authentication"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not found"
	case KindRateLimit:
		return "rate limit"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	default:
		return "remote"
	}
}

// Error is returned by every ledger operation.
type Error struct {
	Kind Kind
	Op   string // "credentials", "open", "append"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Summary is a short operator-facing description of the failure.
func (e *Error) Summary() string {
	switch e.Kind {
	case KindCredentials:
		return "The ledger credentials are missing or malformed."
	case KindAuthentication:
		return "The ledger rejected the studio's credentials."
	case KindPermission:
		return "The studio account is not allowed to write to the ledger."
	case KindNotFound:
		return "The ledger spreadsheet or worksheet could not be found."
	case KindRateLimit:
		return "The ledger is rate limiting requests. Wait a moment before submitting again."
	case KindNetwork:
		return "The ledger could not be reached."
	case KindTimeout:
		return "The ledger did not answer in time."
	default:
		return "The ledger rejected the request."
	}
}

// KindOf returns the Kind of err, or KindRemote if err is not a ledger error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindRemote
}

// classify wraps err into an *Error. Errors that are already classified pass
// through with their kind intact.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var le *Error
	if errors.As(err, &le) {
		return err
	}

	return &Error{Kind: kindFor(err), Op: op, Err: err}
}

func kindFor(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	// Token exchange failures surface wrapped in a *url.Error, so this check
	// has to come before the network one.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return KindAuthentication
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}

	return KindRemote
}

func kindForStatus(apiErr *googleapi.Error) Kind {
	switch apiErr.Code {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return KindRateLimit
			}
		}
		return KindPermission
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimit
	default:
		return KindRemote
	}
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks connection-level failures and remote overload
	// responses that are safe to retry.
	ErrTransient = errors.New("transient failure")
	// ErrRemote marks a well-formed error response from a remote service
	// (unauthorized, bad request, and similar). Never retried.
	ErrRemote = errors.New("remote rejection")
	// ErrNotFound marks lookups that resolved to nothing.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks problems that make the whole run unsafe to
	// continue.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should abort an entire sweep rather than be
// contained at the item boundary.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

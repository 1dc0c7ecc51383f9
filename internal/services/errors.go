package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying every failure an export can surface. All of
// them are terminal for the invocation; nothing is retried.
var (
	ErrInputNotFound = errors.New("input not found")
	ErrDecode        = errors.New("decode error")
	ErrDetection     = errors.New("detection error")
	ErrWrite         = errors.New("write error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrDetection
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Exit codes reported by the CLI, one per error class.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitInputNotFound = 2
	ExitDecode        = 3
	ExitDetection     = 4
	ExitWrite         = 5
	ExitConfiguration = 6
)

// ExitCode maps an error to the process exit code the CLI should use.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInputNotFound):
		return ExitInputNotFound
	case errors.Is(err, ErrDecode):
		return ExitDecode
	case errors.Is(err, ErrDetection):
		return ExitDetection
	case errors.Is(err, ErrWrite):
		return ExitWrite
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	default:
		return ExitFailure
	}
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

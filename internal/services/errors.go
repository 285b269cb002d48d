package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks a contract violation by one of the external
	// binaries (downloader, audio toolbox, fingerprint engine).
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks inputs that cannot be processed as given.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks environment problems that make the whole run
	// impossible (missing binary, unreadable database).
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing files or records.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures worth retrying on a later run.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the whole batch rather than
// just the episode that produced it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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

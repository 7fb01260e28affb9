package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrCoordinatorUnreachable = errors.New("coordinator unreachable")
	ErrTrackNotFound          = errors.New("track not found")
	ErrEmptyQueue             = errors.New("queue is empty")
	ErrLibraryNotConfigured   = errors.New("library path not configured")
	ErrLibraryNotFound        = errors.New("library directory not found")
	ErrAudioUnavailable       = errors.New("audio output unavailable")
	ErrConfigNotFound         = errors.New("config file not found")
	ErrInvalidConfig          = errors.New("invalid configuration")
)

// ChorusError wraps an error with a user-friendly suggestion.
type ChorusError struct {
	Err        error
	Suggestion string
}

func (e *ChorusError) Error() string {
	return e.Err.Error()
}

func (e *ChorusError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &ChorusError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// Check if it's already a ChorusError with suggestion
	var chorusErr *ChorusError
	if errors.As(err, &chorusErr) && chorusErr.Suggestion != "" {
		return chorusErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Coordinator connection errors
	if errors.Is(err, ErrCoordinatorUnreachable) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "dial coordinator") {
		return "Start the coordinator with 'chorus serve', or check coordinator.url in your config"
	}

	// Library errors
	if errors.Is(err, ErrLibraryNotConfigured) {
		return "Set library.path in your config, or pass --library pointing at your music directory"
	}
	if errors.Is(err, ErrLibraryNotFound) || strings.Contains(errStr, "library path is not a directory") {
		return "Check that library.path points at an existing directory"
	}

	// Track errors
	if errors.Is(err, ErrTrackNotFound) || strings.Contains(errStr, "track not found") {
		return "Run 'chorus library' to see the tracks in your catalogue"
	}

	// Queue errors
	if errors.Is(err, ErrEmptyQueue) {
		return "Queue something first with 'chorus play <track>'"
	}

	// Audio errors
	if errors.Is(err, ErrAudioUnavailable) || strings.Contains(errStr, "audio playback not supported") {
		return "This tab cannot produce audio; another connected tab will play instead"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Check your config file (~/.config/chorus/config.toml)"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

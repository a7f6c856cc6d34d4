package chase

import "github.com/pkg/errors"

// Sentinel errors returned by the environment. Callers match them with
// errors.Is, the returned values are wrapped with context.
var (
	// ErrInvalidConfig is returned at construction for unsupported formats,
	// encodings, modes or out of range numeric parameters.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrCapacityExceeded is returned when a fixed size encoding cannot hold
	// all entities of the roster.
	ErrCapacityExceeded = errors.New("observation capacity exceeded")
	// ErrNotReset is returned when Step is invoked before the first Reset.
	ErrNotReset = errors.New("environment not reset")
	// ErrEpisodeDone is returned when Step is invoked after a terminal step
	// without an intervening Reset.
	ErrEpisodeDone = errors.New("episode already done")
	// ErrInvalidAction is returned when the action does not match the number
	// of agents or the shape required by the action encoding.
	ErrInvalidAction = errors.New("invalid action")
)

func configError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfig, format, args...)
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCount is matched by every ConfigError about the record count.
	ErrInvalidCount = errors.New("invalid record count")
	// ErrCapacity is returned when the table handed to Run is too small for
	// the requested count.
	ErrCapacity = errors.New("table too small")
)

// ConfigError reports a record count outside [1, Max].
type ConfigError struct {
	Count int
	Max   int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("number of pairs must be between 1 and %d, got %d", e.Max, e.Count)
}

// Unwrap lets errors.Is match ErrInvalidCount.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidCount
}

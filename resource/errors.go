// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import "errors"

var (
	// ErrBudgetExceeded is returned when an allocation would exceed the
	// pool's memory or resource-count limit.
	ErrBudgetExceeded = errors.New("resource: budget exceeded")

	// ErrInvalidSize is returned for allocations with a non-positive dimension.
	ErrInvalidSize = errors.New("resource: invalid size")

	// ErrUnsupportedFormat is returned when the provider cannot back a format.
	ErrUnsupportedFormat = errors.New("resource: unsupported format")
)

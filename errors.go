// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import "errors"

var (
	// ErrInvalidSettings is returned when Settings fail validation.
	ErrInvalidSettings = errors.New("compositor: invalid settings")

	// ErrHostClosed is returned by DrawFrame after Close.
	ErrHostClosed = errors.New("compositor: host closed")

	// ErrInvalidSize is returned for a non-positive output size.
	ErrInvalidSize = errors.New("compositor: invalid output size")
)

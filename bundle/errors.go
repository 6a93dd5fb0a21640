// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package bundle

import "errors"

var (
	// ErrBundleNotFound means neither the embedded archive nor any search path could be opened.
	ErrBundleNotFound = errors.New("asset bundle not found")
	// ErrBundleIncomplete means the opened archive lacks a required member.
	ErrBundleIncomplete = errors.New("asset bundle is missing a required file")
	// ErrBundleRegister means the opened archive could not be published in the registry.
	ErrBundleRegister = errors.New("can not register asset bundle")
	// ErrInvalidConfig means the bundle configuration can not be decoded.
	ErrInvalidConfig = errors.New("invalid bundle config")
)

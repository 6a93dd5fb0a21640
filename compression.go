// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// checkCompression validates local header flags and compression method.
func (r *Reader) checkCompression(flags, method uint16) error {
	if r.opts.DisableDeflate {
		if flags != 0 || method != MethodStored {
			return fmt.Errorf("%w: flags %#04x, method %d", ErrUnsupportedCompression, flags, method)
		}

		return nil
	}

	if flags&^allowedFlagBits != 0 || (method != MethodStored && method != MethodDeflate) {
		return fmt.Errorf("%w: flags %#04x, method %d", ErrUnsupportedCompression, flags, method)
	}

	return nil
}

// inflateRaw decompresses a raw DEFLATE stream that must produce exactly size bytes.
func inflateRaw(compressed []byte, size uint32) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer func() { _ = fr.Close() }()

	out := make([]byte, size)
	if _, err := io.ReadFull(fr, out); err != nil {
		return nil, fmt.Errorf("%w: inflate: %w", ErrCorruptEntry, err)
	}

	// The stream must end exactly at the declared size.
	var trailing [1]byte
	n, err := fr.Read(trailing[:])
	if n != 0 || !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: inflate: stream longer than declared size", ErrCorruptEntry)
	}

	return out, nil
}

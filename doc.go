// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

/*
Package apzip provides a small read-only ZIP archive reader with an
on-demand, CRC-validated decode cache and a fixed-capacity registry that
publishes open readers under short tags.

Format support (summary):
  - stored (method 0) and raw DEFLATE (method 8) entries;
  - general purpose flags must be zero apart from bit 0x0002;
  - multi-volume archives are rejected;
  - sources shorter than the 22-byte end-of-central-directory record are rejected;
  - entries larger than ReaderOptions.MaxEntrySize (256 MiB by default) are reported as absent;
  - sizes and CRC are taken from local file headers, never from the central directory.

# Reading

Open an archive from disk or from memory and fetch entries by exact name:

	r, err := apzip.Open("BaseAssets.zip")
	if err != nil {
	    return err
	}
	defer r.Close()

	if f, ok := r.GetFile("Launcher.wad"); ok {
	    // f.Data is nil for zero-length entries such as "maps/".
	    _ = f.Data
	}

The first GetFile for an entry decodes it; later calls return the same
result without touching the source again. Missing and corrupt entries look
the same to callers: GetFile returns false and ReadFile returns an error
wrapping ErrEntryNotFound. Reasons are logged through ReaderOptions.Logger.

Archives compiled into the program can be opened directly:

	//go:embed BaseAssets.zip
	var baseAssets []byte

	r, err := apzip.OpenMemory(baseAssets)

# Registry

Publish an open reader so unrelated code can find it by tag:

	if !apzip.Register(r, ":assets:") {
	    return errors.New("can not register assets")
	}

	assets := apzip.Fetch(":assets:")

Tags are at most 15 bytes and unique; the registry holds 8 readers. Closing
a reader removes it from every registry, so Fetch never returns a closed
reader.

Entries of registered archives can be opened by virtual path:

	wad, err := apzip.OpenVirtual(nil, ":assets:/Launcher.wad")

# Extracting

	if err := r.Extract(ctx, "out/", apzip.ExtractOptions{MaxWorkers: 4}); err != nil {
	    return err
	}

Path sanitization is enabled by default during extraction. Include rules
select a subset:

	err := r.Extract(ctx, "out/", apzip.ExtractOptions{
	    Include: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "*.wad"},
	    },
	})
*/
package apzip

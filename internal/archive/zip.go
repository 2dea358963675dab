// Package archive packages a patch's files into a single zip stream
// for download. A patch with zero files packs to a valid empty archive;
// that outcome is distinct from a packaging failure, which surfaces as
// types.ErrPackagingFailed.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/soulhub/soulhub-backend/internal/types"
)

// Pack writes one zip entry per file, in the given order, entry name =
// file name and payload = the content bytes.
func Pack(files []*types.PatchFile) ([]byte, error) {
	var buf bytes.Buffer
	if err := PackTo(&buf, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PackTo streams the archive to w. Any write failure aborts the whole
// operation; callers never see a partially written archive as success.
func PackTo(w io.Writer, files []*types.PatchFile) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		content := []byte(f.Content)
		header := &zip.FileHeader{
			Name:   f.Name,
			Method: zip.Deflate,
		}
		header.UncompressedSize64 = uint64(len(content))
		entry, err := zw.CreateHeader(header)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("%w: create entry %q: %v", types.ErrPackagingFailed, f.Name, err)
		}
		if _, err := entry.Write(content); err != nil {
			_ = zw.Close()
			return fmt.Errorf("%w: write entry %q: %v", types.ErrPackagingFailed, f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finalize archive: %v", types.ErrPackagingFailed, err)
	}
	return nil
}

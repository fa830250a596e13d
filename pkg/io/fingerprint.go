package io

import (
	"encoding/hex"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// Fingerprint is a digest over the paths and contents of files, independent of their order.
func Fingerprint(files []File) (string, error) {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.ToSlash(sorted[i].Path()) < filepath.ToSlash(sorted[j].Path())
	})

	h := blake3.New()
	for _, f := range sorted {
		content, err := Render(f)
		if err != nil {
			return "", err
		}
		_, _ = h.Write([]byte(filepath.ToSlash(f.Path())))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(content)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

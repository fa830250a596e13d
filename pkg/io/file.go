package io

import (
	"bytes"
	"io"
)

type (
	// File is a generated file, rooted at the directory that [OutputTo] is given.
	File interface {
		Path() string
		WriteTo(io.Writer) (int64, error)
		Clone() File
	}

	// NonOverwritable is implemented by files that may refuse to replace content already on disk.
	// Overwrite receives the current on-disk content.
	NonOverwritable interface {
		Overwrite(existing []byte) bool
	}

	// RawFile represents a file with its included `Content` in case the generator needs to read/manipulate it.
	RawFile struct {
		FPath   string
		Content []byte
	}
)

func (r *RawFile) Clone() File {
	nf := &RawFile{
		FPath: r.FPath,
	}
	nf.Content = make([]byte, len(r.Content))
	copy(nf.Content, r.Content)
	return nf
}

func (r *RawFile) Path() string {
	return r.FPath
}

func (r *RawFile) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Content)
	return int64(n), err
}

// Render returns the full content of f.
func Render(f File) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileNames returns the paths of files, in the same order.
func FileNames(files []File) []string {
	s := make([]string, len(files))
	for i, f := range files {
		s[i] = f.Path()
	}
	return s
}

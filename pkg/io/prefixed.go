package io

import (
	"io"
	"path"
)

type prefixedFile struct {
	dir  string
	file File
}

// Prefixed relocates f under dir, keeping its content and overwrite behaviour.
func Prefixed(dir string, f File) File {
	if dir == "" || dir == "." {
		return f
	}
	return &prefixedFile{dir: dir, file: f}
}

func (p *prefixedFile) Path() string {
	return path.Join(p.dir, p.file.Path())
}

func (p *prefixedFile) WriteTo(w io.Writer) (int64, error) {
	return p.file.WriteTo(w)
}

func (p *prefixedFile) Clone() File {
	return &prefixedFile{dir: p.dir, file: p.file.Clone()}
}

func (p *prefixedFile) Overwrite(existing []byte) bool {
	if ovr, ok := p.file.(NonOverwritable); ok {
		return ovr.Overwrite(existing)
	}
	return true
}

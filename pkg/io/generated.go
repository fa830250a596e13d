package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

const (
	// MarkerKey is the key under which JSON files carry the generated-by notice.
	MarkerKey = "//"
	// GeneratedMarker is the notice written into every generated file that supports comments or a marker key.
	GeneratedMarker = `~~ Generated by pdk. To modify, edit the workspace definition and run "pdk synth".`
)

type (
	// JSONFile renders Obj as indented JSON with a trailing newline. Map keys are always sorted, so the output is
	// stable for a given Obj.
	JSONFile struct {
		FPath string
		Obj   any

		// Marker adds the [GeneratedMarker] under [MarkerKey]. Obj must encode as a JSON object.
		Marker bool

		// OwnershipKey makes the file [NonOverwritable]: an existing file is only replaced when it is a JSON object
		// whose OwnershipKey is `true`.
		OwnershipKey string
	}

	// TextFile renders Lines joined by newlines.
	TextFile struct {
		FPath string
		Lines []string
	}

	// IgnoreFile is a newline-delimited list of gitignore-style glob patterns.
	IgnoreFile struct {
		FPath    string
		patterns []string
	}

	// YAMLFile renders Obj with yaml.v3, prefixed with the generated-by comment.
	YAMLFile struct {
		FPath string
		Obj   any
	}
)

func (f *JSONFile) Path() string {
	return f.FPath
}

func (f *JSONFile) Clone() File {
	nf := *f
	return &nf
}

func (f *JSONFile) Content() ([]byte, error) {
	obj := f.Obj
	if f.Marker {
		withMarker, err := toObject(obj)
		if err != nil {
			return nil, fmt.Errorf("could not add marker to %s: %w", f.FPath, err)
		}
		withMarker[MarkerKey] = GeneratedMarker
		obj = withMarker
	}
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("could not encode %s: %w", f.FPath, err)
	}
	return buf.Bytes(), nil
}

func (f *JSONFile) WriteTo(w io.Writer) (int64, error) {
	content, err := f.Content()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(content)
	return int64(n), err
}

func (f *JSONFile) Overwrite(existing []byte) bool {
	if f.OwnershipKey == "" {
		return true
	}
	return IsOwned(existing, f.OwnershipKey)
}

// IsOwned reports whether content is a JSON object with `key: true`.
func IsOwned(content []byte, key string) bool {
	var obj map[string]any
	if err := json.Unmarshal(content, &obj); err != nil {
		return false
	}
	owned, ok := obj[key].(bool)
	return ok && owned
}

func toObject(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		cp := make(map[string]any, len(m)+1)
		for k, v := range m {
			cp[k] = v
		}
		return cp, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func (f *TextFile) Path() string {
	return f.FPath
}

func (f *TextFile) Clone() File {
	nf := &TextFile{FPath: f.FPath, Lines: make([]string, len(f.Lines))}
	copy(nf.Lines, f.Lines)
	return nf
}

func (f *TextFile) WriteTo(w io.Writer) (int64, error) {
	cw := &CountingWriter{Delegate: w}
	for _, line := range f.Lines {
		cw.WriteString(line)
		cw.WriteString("\n")
	}
	return cw.BytesWritten, cw.Err
}

func NewIgnoreFile(path string, patterns ...string) *IgnoreFile {
	f := &IgnoreFile{FPath: path}
	f.Exclude(patterns...)
	return f
}

// Exclude adds patterns, ignoring ones already present. A pattern starting with `!` re-includes what earlier
// patterns excluded.
func (f *IgnoreFile) Exclude(patterns ...string) {
	for _, p := range patterns {
		f.add(p)
	}
}

func (f *IgnoreFile) add(p string) {
	p = strings.TrimSpace(p)
	if p == "" {
		return
	}
	for _, existing := range f.patterns {
		if existing == p {
			return
		}
	}
	f.patterns = append(f.patterns, p)
}

func (f *IgnoreFile) Patterns() []string {
	return append([]string(nil), f.patterns...)
}

// Ignores reports whether a workspace-relative path is excluded. Later patterns take precedence. A pattern without
// a slash, or whose only slash is a trailing one, matches at any depth.
func (f *IgnoreFile) Ignores(p string) bool {
	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	ignored := false
	for _, pattern := range f.patterns {
		negate := strings.HasPrefix(pattern, "!")
		if matchIgnorePattern(strings.TrimPrefix(pattern, "!"), p) {
			ignored = !negate
		}
	}
	return ignored
}

func matchIgnorePattern(pattern, p string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	candidates := []string{pattern, pattern + "/**"}
	if !anchored {
		candidates = append(candidates, "**/"+pattern, "**/"+pattern+"/**")
	}
	for _, c := range candidates {
		//! Implementation note: use `doublestar` package over stdlib `filepath`
		// since the latter has no support for `**`.
		if ok, err := doublestar.Match(c, p); err == nil && ok {
			return true
		}
	}
	return false
}

func (f *IgnoreFile) Path() string {
	return f.FPath
}

func (f *IgnoreFile) Clone() File {
	return &IgnoreFile{FPath: f.FPath, patterns: f.Patterns()}
}

func (f *IgnoreFile) WriteTo(w io.Writer) (int64, error) {
	lines := append([]string{"# " + GeneratedMarker}, f.patterns...)
	return (&TextFile{FPath: f.FPath, Lines: lines}).WriteTo(w)
}

func (f *YAMLFile) Path() string {
	return f.FPath
}

func (f *YAMLFile) Clone() File {
	nf := *f
	return &nf
}

func (f *YAMLFile) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)
	buf.WriteString("# " + GeneratedMarker + "\n\n")
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.Obj); err != nil {
		return 0, fmt.Errorf("could not encode %s: %w", f.FPath, err)
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

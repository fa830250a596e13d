package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/r3labs/diff"
)

type (
	// Drift describes a file whose on-disk content differs from what would be generated.
	Drift struct {
		Path   string
		Status DriftStatus
		// Changes is populated for JSON files that exist on disk and parse.
		Changes diff.Changelog
	}

	DriftStatus string
)

const (
	DriftCreate DriftStatus = "create"
	DriftUpdate DriftStatus = "update"
)

func (d Drift) String() string {
	if len(d.Changes) == 0 {
		return fmt.Sprintf("%s (%s)", d.Path, d.Status)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)", d.Path, d.Status)
	for _, c := range d.Changes {
		fmt.Fprintf(&sb, "\n  %s %s: %v -> %v", c.Type, strings.Join(c.Path, "."), c.From, c.To)
	}
	return sb.String()
}

// Diff compares files against dest without writing anything. Files that would be skipped because they are not
// owned (see [NonOverwritable]) are not reported.
func Diff(files []File, dest string) ([]Drift, error) {
	var drifts []Drift
	for _, f := range files {
		content, err := Render(f)
		if err != nil {
			return nil, err
		}
		existing, err := os.ReadFile(filepath.Join(dest, f.Path()))
		if errors.Is(err, fs.ErrNotExist) {
			drifts = append(drifts, Drift{Path: f.Path(), Status: DriftCreate})
			continue
		} else if err != nil {
			return nil, err
		}
		if ovr, ok := f.(NonOverwritable); ok && !ovr.Overwrite(existing) {
			continue
		}
		if bytes.Equal(existing, content) {
			continue
		}
		d := Drift{Path: f.Path(), Status: DriftUpdate}
		if strings.HasSuffix(f.Path(), ".json") {
			d.Changes = jsonChanges(existing, content)
		}
		drifts = append(drifts, d)
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Path < drifts[j].Path })
	return drifts, nil
}

func jsonChanges(before, after []byte) diff.Changelog {
	var a, b map[string]any
	if json.Unmarshal(before, &a) != nil || json.Unmarshal(after, &b) != nil {
		return nil
	}
	changes, err := diff.Diff(a, b)
	if err != nil {
		return nil
	}
	return changes
}

package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// Recorded loads fixtures from a directory of JSON files, one match per
// file, sorted by path (spec.md §6: "Recorded connectors load from a
// directory of JSON fixtures sorted by path.").
type Recorded struct {
	name string
	fsys fs.FS
	root string
}

// NewRecorded constructs a recorded connector reading from root within fsys.
func NewRecorded(name string, fsys fs.FS, root string) *Recorded {
	return &Recorded{name: name, fsys: fsys, root: root}
}

func (r *Recorded) Name() string { return r.name }

func (r *Recorded) Category() Category { return CategoryRecorded }

func (r *Recorded) fixturePaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(r.fsys, r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == r.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk fixtures: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *Recorded) FetchMatches(_ context.Context) ([]MatchIdentity, error) {
	paths, err := r.fixturePaths()
	if err != nil {
		return nil, err
	}

	out := make([]MatchIdentity, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", p, err)
		}
		var match IngestedMatchData
		if err := json.Unmarshal(data, &match); err != nil {
			return nil, fmt.Errorf("unmarshal fixture %s: %w", p, err)
		}
		kickoff := match.KickoffUTC
		out = append(out, MatchIdentity{MatchID: match.MatchID, KickoffUTC: &kickoff, Competition: match.Competition})
	}
	return out, nil
}

func (r *Recorded) FetchMatchData(_ context.Context, matchID string) (*IngestedMatchData, error) {
	paths, err := r.fixturePaths()
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		data, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", p, err)
		}
		var match IngestedMatchData
		if err := json.Unmarshal(data, &match); err != nil {
			return nil, fmt.Errorf("unmarshal fixture %s: %w", p, err)
		}
		if match.MatchID == matchID {
			return &match, nil
		}
	}
	return nil, nil
}

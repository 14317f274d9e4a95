package takeout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const (
	legacyFile   = "Google Hangouts/Hangouts.json"
	groupsDir    = "Google Chat/Groups"
	messagesFile = "messages.json"
)

// Layout locates the two exports inside an extracted Takeout directory.
type Layout struct {
	Root string
}

func (l Layout) LegacyPath() string {
	return filepath.Join(l.Root, filepath.FromSlash(legacyFile))
}

func (l Layout) GroupsDir() string {
	return filepath.Join(l.Root, filepath.FromSlash(groupsDir))
}

// GroupLoader supplies one Google Chat group on demand.
type GroupLoader interface {
	ID() string
	Load(ctx context.Context) (*NewGroup, error)
}

// DirGroup loads <Dir>/<Name>/messages.json.
type DirGroup struct {
	Dir  string
	Name string
}

func (g DirGroup) ID() string {
	return g.Name
}

func (g DirGroup) Load(ctx context.Context) (*NewGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(g.Name, err)
	}
	path := filepath.Join(g.Dir, g.Name, messagesFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErr(path, fmt.Errorf("open: %w", err))
	}
	defer f.Close()

	group, err := DecodeGroup(g.Name, f)
	if err != nil {
		return nil, loadErr(path, err)
	}
	return group, nil
}

// ListGroups returns the group directory names under dir in lexical order.
// The order is part of the matching contract, so it never depends on the
// filesystem's listing order.
func ListGroups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, loadErr(dir, fmt.Errorf("read groups dir: %w", err))
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// DirGroups wraps each group name in a DirGroup rooted at dir.
func DirGroups(dir string, names []string) []GroupLoader {
	loaders := make([]GroupLoader, len(names))
	for i, name := range names {
		loaders[i] = DirGroup{Dir: dir, Name: name}
	}
	return loaders
}

type chatExport struct {
	Messages *[]NewMessage `json:"messages"`
}

// DecodeGroup decodes a Google Chat messages.json document.
func DecodeGroup(id string, r io.Reader) (*NewGroup, error) {
	var raw chatExport
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if raw.Messages == nil {
		return nil, errors.New("missing messages array")
	}
	return &NewGroup{ID: id, Messages: *raw.Messages}, nil
}

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile decodes one YAML page definition. Unknown fields are rejected.
//
//	key: rugs
//	group: Inventory
//	label: Rugs
//	columns:
//	  - Rug Name
//	  - {label: Width, numeric: true, headerSuffix: " m"}
//	  - {label: Area, derive: "num(width) * num(length)", headerSuffix: " m²"}
//	seed:
//	  - {rugName: Kilim, width: 2}
func LoadFile(path string) (PageDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PageDefinition{}, fmt.Errorf("read page file: %w", err)
	}
	def, err := decode(data)
	if err != nil {
		return PageDefinition{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if def.Info.Key == "" {
		def.Info.Key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := def.Validate(); err != nil {
		return PageDefinition{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return def, nil
}

func decode(data []byte) (PageDefinition, error) {
	var def PageDefinition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return PageDefinition{}, errors.New("empty page file")
		}
		return PageDefinition{}, fmt.Errorf("decode page: %w", err)
	}
	return def, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, in name order. Any
// invalid file fails the whole load.
func LoadDir(dir string) ([]PageDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read page dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	defs := make([]PageDefinition, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		def, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[def.Info.Key]; dup {
			return nil, fmt.Errorf("%s: page %q already defined in %s", name, def.Info.Key, prev)
		}
		seen[def.Info.Key] = name
		defs = append(defs, def)
	}
	return defs, nil
}

// Install loads dir and registers its pages, replacing built-in pages with
// the same key. An empty dir is a no-op.
func Install(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	defs, err := LoadDir(dir)
	if err != nil {
		return 0, err
	}
	for _, def := range defs {
		_, replaced := Get(def.Info.Key)
		if err := Put(def); err != nil {
			return 0, err
		}
		slog.Info("page definition loaded", "page", def.Info.Key, "replaced", replaced, "columns", len(def.Columns))
	}
	return len(defs), nil
}

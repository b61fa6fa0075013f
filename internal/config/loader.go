package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceKind says where an effective value came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source locates the last writer of a config path.
type Source struct {
	Kind   SourceKind
	Name   string // set for defaults
	File   string
	Line   int
	Column int
}

// String renders "file:<path>:<line>:<col>" or "default:<name>", dropping
// whatever parts are unknown.
func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		switch {
		case s.File == "":
			return "file"
		case s.Line > 0:
			return fmt.Sprintf("file:%s:%d:%d", s.File, s.Line, s.Column)
		}
		return "file:" + s.File
	case SourceDefault:
		if s.Name == "" {
			return "default"
		}
		return "default:" + s.Name
	}
	return string(s.Kind)
}

// LoadResult is an effective config plus where each file-set path came from.
type LoadResult struct {
	Config  *Config
	Sources map[string]Source
	// Files lists every file read, includes before the file including them.
	Files []string
}

// DefaultConfigPath returns ~/.config/multiwin/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "multiwin", "config.yaml"), nil
}

// Load returns the effective config from the default location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load, keeping per-path sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and everything it includes. A missing file yields
// the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &fileLoader{seen: map[string]bool{}, sources: map[string]Source{}}

	var raw RawConfig
	switch _, err := os.Stat(path); {
	case err == nil:
		if raw, err = l.load(path); err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Path != "" {
			if src, ok := l.sources[verr.Path]; ok {
				verr.Source = src
			}
		}
		return nil, err
	}
	return &LoadResult{Config: cfg, Sources: l.sources, Files: l.files}, nil
}

// fileLoader merges a file tree. Included files are merged in order, then the
// including file is merged over them, so sources record the last writer.
type fileLoader struct {
	seen    map[string]bool
	chain   []string
	sources map[string]Source
	files   []string
}

func (l *fileLoader) load(path string) (RawConfig, error) {
	file := canonicalPath(path)
	if slices.Contains(l.chain, file) {
		return RawConfig{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.chain, " -> "), file)
	}
	// A file reached twice through different includes is merged once.
	if l.seen[file] {
		return RawConfig{}, nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	own, err := decodeStrict(data)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", file, err)
	}
	located := map[string]Source{}
	locate(rootMapping(&doc), file, "", located)

	l.chain = append(l.chain, file)
	defer func() { l.chain = l.chain[:len(l.chain)-1] }()

	var merged RawConfig
	for _, inc := range own.Include {
		targets, err := includeTargets(file, inc)
		if err != nil {
			src := located["include"]
			return RawConfig{}, fmt.Errorf("%s:%d:%d: include %q: %w", file, src.Line, src.Column, inc, err)
		}
		for _, target := range targets {
			sub, err := l.load(target)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(sub)
		}
	}

	maps.Copy(l.sources, located)
	l.files = append(l.files, file)
	return merged.merge(own), nil
}

func decodeStrict(data []byte) (RawConfig, error) {
	var raw RawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return RawConfig{}, err
	}
	return raw, nil
}

// canonicalPath resolves symlinks when it can, so one file has one name.
func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// includeTargets resolves an include entry relative to the including file.
// A directory expands to its *.yaml and *.yml files in name order.
func includeTargets(from, include string) ([]string, error) {
	if include == "" {
		return nil, errors.New("path is empty")
	}
	path, err := expandHome(include)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(from), path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	return out, nil
}

func rootMapping(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

// locate records the position of every key's value under prefix. Sequences
// are recorded as a whole.
func locate(node *yaml.Node, file, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		out[key] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
		locate(val, file, key, out)
	}
}

// Package files implements the assistant's file helpers: creating folders
// and files, reading files into a bounded content store, and listing
// directories. Every operation returns human-readable status lines.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-assistant/internal/observability"
)

// DefaultCapacity is the number of files kept when no capacity is given
const DefaultCapacity = 256

// FileSpec describes a file to create
type FileSpec struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// PathSpecs turns bare paths into empty-file specs
func PathSpecs(paths ...string) []FileSpec {
	specs := make([]FileSpec, len(paths))
	for i, p := range paths {
		specs[i] = FileSpec{Path: p}
	}
	return specs
}

// File is one stored file
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Workspace owns the content store that files are read into. The store is
// keyed by absolute path and evicts the least recently used file once full.
type Workspace struct {
	store  *lru.Cache[string, string]
	logger zerolog.Logger
}

// NewWorkspace creates a workspace holding at most capacity files
func NewWorkspace(capacity int) (*Workspace, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	w := &Workspace{
		logger: observability.GetLogger().With().Str("component", "files").Logger(),
	}

	store, err := lru.NewWithEvict(capacity, func(path string, _ string) {
		w.logger.Debug().Str("path", path).Msg("Evicted file from content store")
	})
	if err != nil {
		return nil, fmt.Errorf("create content store: %w", err)
	}
	w.store = store
	return w, nil
}

// CreateFolders creates each path and any missing parents
func (w *Workspace) CreateFolders(paths []string) string {
	results := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := os.MkdirAll(path, 0o755); err != nil {
			observability.RecordFileOperation("mkdir", false)
			results = append(results, fmt.Sprintf("Error creating folder(s) %s: %v", path, err))
			continue
		}
		observability.RecordFileOperation("mkdir", true)
		results = append(results, fmt.Sprintf("Folder(s) created: %s", path))
	}
	return strings.Join(results, "\n")
}

// CreateFiles writes each file, creating parent folders, and stores its content
func (w *Workspace) CreateFiles(specs []FileSpec) string {
	results := make([]string, 0, len(specs))
	for _, spec := range specs {
		if spec.Path == "" {
			results = append(results, "Error: Missing 'path' for file")
			continue
		}

		if err := w.createFile(spec); err != nil {
			observability.RecordFileOperation("create", false)
			results = append(results, fmt.Sprintf("Error creating file: %v", err))
			continue
		}
		observability.RecordFileOperation("create", true)
		results = append(results, fmt.Sprintf("File created and added to system prompt: %s", spec.Path))
	}
	return strings.Join(results, "\n")
}

func (w *Workspace) createFile(spec FileSpec) error {
	if dir := filepath.Dir(spec.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(spec.Path, []byte(spec.Content), 0o644); err != nil {
		return err
	}

	abs, err := filepath.Abs(spec.Path)
	if err != nil {
		return err
	}
	w.store.Add(abs, spec.Content)
	return nil
}

// ReadFiles reads every file matched by patterns into the store. A directory
// reads its files; recursive also reads its subdirectories and lets ** in a
// pattern cross directories. Files already stored are not read again.
func (w *Workspace) ReadFiles(patterns []string, recursive bool) string {
	var results []string
	for _, pattern := range patterns {
		matches, err := expand(pattern, recursive)
		if err != nil {
			observability.RecordFileOperation("read", false)
			results = append(results, fmt.Sprintf("Error reading path '%s': %v", pattern, err))
			continue
		}
		for _, match := range matches {
			results = append(results, w.readFile(match))
		}
	}
	return strings.Join(results, "\n")
}

func (w *Workspace) readFile(path string) string {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Sprintf("Skipped '%s': Not a file.", path)
	}

	if w.store.Contains(path) {
		return fmt.Sprintf("File '%s' is already in the system prompt. No need to read again.", path)
	}

	data, err := os.ReadFile(path)
	if err == nil && !utf8.Valid(data) {
		err = errors.New("file is not valid UTF-8 text")
	}
	if err != nil {
		observability.RecordFileOperation("read", false)
		return fmt.Sprintf("Error reading path '%s': %v", path, err)
	}

	w.store.Add(path, string(data))
	observability.RecordFileOperation("read", true)
	return fmt.Sprintf("File '%s' has been read and stored in the system prompt.", path)
}

// expand resolves one pattern to absolute paths
func expand(pattern string, recursive bool) ([]string, error) {
	abs, err := filepath.Abs(pattern)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		glob := filepath.Join(abs, "*")
		if recursive {
			glob = filepath.Join(abs, "**", "*")
		}
		matches, err := doublestar.FilepathGlob(glob)
		if err != nil {
			return nil, err
		}
		return regularFiles(matches), nil
	}

	if !recursive {
		abs = strings.ReplaceAll(abs, "**", "*")
	}
	matches, err := doublestar.FilepathGlob(abs)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 && !hasMeta(pattern) {
		_, err := os.Stat(abs)
		return nil, err
	}
	return matches, nil
}

func regularFiles(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	return out
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{\`)
}

// ListFiles returns the names in a directory, one per line
func (w *Workspace) ListFiles(path string) string {
	if path == "" {
		path = "."
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		observability.RecordFileOperation("list", false)
		return fmt.Sprintf("Error listing files: %v", err)
	}
	observability.RecordFileOperation("list", true)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return strings.Join(names, "\n")
}

// Contents returns the stored files, least recently used first
func (w *Workspace) Contents() []File {
	keys := w.store.Keys()
	files := make([]File, 0, len(keys))
	for _, k := range keys {
		if content, ok := w.store.Peek(k); ok {
			files = append(files, File{Path: k, Content: content})
		}
	}
	return files
}

// Forget drops a file from the store so the next read loads it again
func (w *Workspace) Forget(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return w.store.Remove(abs)
}

// Len returns the number of stored files
func (w *Workspace) Len() int {
	return w.store.Len()
}

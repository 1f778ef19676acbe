// Package registry discovers GGUF model files on disk.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"lmchat/internal/common/fsutil"
	"lmchat/pkg/types"
)

// quantRe matches llama.cpp quantization tags such as Q4_K_M, Q8_0 or F16.
var quantRe = regexp.MustCompile(`(?i)(?:^|[.\-_])((?:IQ|Q)\d(?:_[A-Z0-9]+)*|F16|F32|BF16)$`)

var families = []string{"tinyllama", "llama", "mistral", "mixtral", "phi", "qwen", "gemma"}

// GGUFScanner lists *.gguf files in a directory.
type GGUFScanner struct{}

func NewGGUFScanner() GGUFScanner { return GGUFScanner{} }

// Scan returns the models found directly in dir, sorted by ID. A missing
// directory yields an empty list.
func (GGUFScanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []types.Model{}, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	models := []types.Model{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), ".gguf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		models = append(models, describe(filepath.Join(abs, name), info.Size()))
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir scans dir with the default scanner.
func LoadDir(dir string) ([]types.Model, error) {
	return NewGGUFScanner().Scan(dir)
}

// describe derives model metadata from the file name.
func describe(path string, size int64) types.Model {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := types.Model{ID: id, Path: path, SizeBytes: size}
	stem := id
	if q := quantRe.FindStringSubmatch(id); q != nil {
		m.Quant = strings.ToUpper(q[1])
		stem = strings.TrimRight(id[:len(id)-len(q[1])], ".-_")
	}
	lower := strings.ToLower(stem)
	for _, f := range families {
		if strings.Contains(lower, f) {
			m.Family = f
			break
		}
	}
	m.Name = prettyName(stem)
	if m.Quant != "" {
		m.Name += " (" + m.Quant + ")"
	}
	return m
}

func prettyName(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

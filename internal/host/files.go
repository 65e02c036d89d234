package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/pluginwire/internal/protocol"
)

var (
	ErrPathEscapesRoot = errors.New("host: output path escapes root")
	ErrEmptyFileName   = errors.New("host: output file name is empty")
)

// WriteFiles writes files under root in order and returns the written paths.
// Every name is resolved before anything touches disk, so a single bad name
// writes nothing. Later files with the same name overwrite earlier ones.
func WriteFiles(root string, files []protocol.File) ([]string, error) {
	targets := make([]string, len(files))
	for i, f := range files {
		p, err := resolvePath(root, f.Name)
		if err != nil {
			return nil, err
		}
		targets[i] = p
	}

	for i, f := range files {
		if err := os.MkdirAll(filepath.Dir(targets[i]), 0o755); err != nil {
			return targets[:i], fmt.Errorf("host: create directory for %s: %w", f.Name, err)
		}
		if err := os.WriteFile(targets[i], f.Data, 0o644); err != nil {
			return targets[:i], fmt.Errorf("host: write %s: %w", f.Name, err)
		}
	}
	return targets, nil
}

// resolvePath joins a slash-separated plugin file name onto root.
func resolvePath(root, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyFileName
	}
	native := filepath.FromSlash(name)
	if filepath.IsAbs(native) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s is absolute", ErrPathEscapesRoot, name)
	}
	p := filepath.Join(root, native)
	if !isWithin(p, root) || filepath.Clean(p) == filepath.Clean(root) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, name)
	}
	return p, nil
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}

// Package media stores uploaded audio and image blobs on disk and hands out
// stable retrieval paths. The chat core never looks inside a blob; it carries
// the returned path as an opaque string payload.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/codefionn/warteraum/internal/chat"
)

const (
	audioDirName = "audios"
	imageDirName = "images"

	defaultAudioExt = ".webm"
	defaultImageExt = ".png"
)

// Store is a disk-backed blob store rooted at a single directory, with one
// subdirectory per payload kind.
type Store struct {
	root string
}

// NewStore creates the blob store rooted at root, creating the per-kind
// subdirectories if needed.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{audioDirName, imageDirName} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create media directory %s: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Save writes the blob to disk under a unique name and returns the URL path
// it will be served from, e.g. "/audios/<id>.webm". The extension is taken
// from the uploaded filename when present.
func (s *Store) Save(kind chat.Kind, r io.Reader, originalName string) (string, error) {
	dir, defaultExt, err := layout(kind)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = defaultExt
	}
	name := uuid.NewString() + ext

	path := filepath.Join(s.root, dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return "/" + dir + "/" + name, nil
}

// Dir returns the on-disk directory for a payload kind, for static serving.
func (s *Store) Dir(kind chat.Kind) (string, error) {
	dir, _, err := layout(kind)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, dir), nil
}

func layout(kind chat.Kind) (dir, defaultExt string, err error) {
	switch kind {
	case chat.KindAudio:
		return audioDirName, defaultAudioExt, nil
	case chat.KindImage:
		return imageDirName, defaultImageExt, nil
	default:
		return "", "", fmt.Errorf("no blob storage for payload kind %q", kind)
	}
}

package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const imageExtension = ".jpg"

// Store keeps profile images on local disk, one directory per username,
// and hands back the public URL path an image is served from.
type Store struct {
	rootDir   string
	urlPrefix string
}

func NewStore(rootDir, urlPrefix string) *Store {
	return &Store{
		rootDir:   rootDir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}
}

func (s *Store) Save(username string, data []byte) (string, error) {
	username = sanitizeName(username)
	if username == "" {
		return "", fmt.Errorf("invalid username for image path")
	}

	dir := filepath.Join(s.rootDir, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}

	path := filepath.Join(dir, username+imageExtension)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	return s.urlPrefix + "/" + username + "/" + username + imageExtension, nil
}

func (s *Store) Load(username, fileName string) ([]byte, error) {
	username = sanitizeName(username)
	fileName = sanitizeName(fileName)
	if username == "" || fileName == "" {
		return nil, os.ErrNotExist
	}

	return os.ReadFile(filepath.Join(s.rootDir, username, fileName))
}

// sanitizeName strips anything that could escape the store's directory.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return ""
	}
	return name
}

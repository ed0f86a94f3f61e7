package client

import (
	"fmt"
	"os"
	"strings"
)

// FileStore reads the bearer token from a file, typically written by a
// login helper after POST /auth/sign-in.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) HasCredential() bool {
	info, err := os.Stat(f.Path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func (f *FileStore) Credential() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read credential file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("credential file %s is empty", f.Path)
	}
	return token, nil
}

// StaticStore holds a token in memory. Used for tests and one-shot tools.
type StaticStore struct {
	Token string
}

func (s StaticStore) HasCredential() bool { return s.Token != "" }

func (s StaticStore) Credential() (string, error) {
	if s.Token == "" {
		return "", ErrNoCredential
	}
	return s.Token, nil
}

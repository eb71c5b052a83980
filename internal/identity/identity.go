// Package identity хранит выбранное имя участника между сессиями.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Identity struct {
	Name string `yaml:"name"`
}

type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath — ~/.config/coderoom/identity.yaml, либо файл в текущем каталоге.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "coderoom-identity.yaml"
	}
	return filepath.Join(dir, "coderoom", "identity.yaml")
}

// Load возвращает пустую Identity, если файла ещё нет.
func (f *File) Load() (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File) load() (Identity, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("read identity: %w", err)
	}
	var id Identity
	if err := yaml.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse identity: %w", err)
	}
	return id, nil
}

func (f *File) LoadName() string {
	id, err := f.Load()
	if err != nil {
		return ""
	}
	return id.Name
}

func (f *File) SaveName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.load()
	if err != nil {
		id = Identity{}
	}
	id.Name = name

	data, err := yaml.Marshal(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("identity dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

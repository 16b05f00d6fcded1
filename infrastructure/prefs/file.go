// Package prefs keeps device preferences in a YAML file.
package prefs

import (
	"chat-sync/domain"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type document struct {
	Credentials *domain.Credentials `yaml:"credentials,omitempty"`
}

// FilePreferences stores credentials in a file readable by the owner only.
type FilePreferences struct {
	mu   sync.Mutex
	path string
}

func NewFilePreferences(path string) *FilePreferences {
	return &FilePreferences{path: path}
}

// DefaultPath is chatsync/preferences.yaml in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatsync", "preferences.yaml"), nil
}

func (p *FilePreferences) Credentials() (domain.Credentials, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return domain.Credentials{}, false, err
	}
	if doc.Credentials == nil || doc.Credentials.Token == "" {
		return domain.Credentials{}, false, nil
	}
	return *doc.Credentials, true, nil
}

func (p *FilePreferences) SaveCredentials(creds domain.Credentials) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return err
	}
	doc.Credentials = &creds
	return p.write(doc)
}

func (p *FilePreferences) ClearCredentials() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return err
	}
	if doc.Credentials == nil {
		return nil
	}
	doc.Credentials = nil
	return p.write(doc)
}

func (p *FilePreferences) read() (document, error) {
	var doc document
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("preferences %s: %w", p.path, err)
	}
	return doc, nil
}

func (p *FilePreferences) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

package device

import (
	"fmt"
	"os"
)

// Artifact is the rendered configuration written to a temporary file owned
// by one apply run.
type Artifact struct {
	Path string
}

// WriteArtifact stores config in a new temporary file in dir (the system
// temp directory when empty).
func WriteArtifact(dir, config string) (*Artifact, error) {
	f, err := os.CreateTemp(dir, "filterupdate-*.conf")
	if err != nil {
		return nil, fmt.Errorf("creating config artifact: %w", err)
	}
	if _, err := f.WriteString(config); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing config artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing config artifact: %w", err)
	}
	return &Artifact{Path: f.Name()}, nil
}

// Contents reads the artifact back.
func (a *Artifact) Contents() (string, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return "", fmt.Errorf("reading config artifact: %w", err)
	}
	return string(data), nil
}

// Remove deletes the artifact. Removing twice is not an error.
func (a *Artifact) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

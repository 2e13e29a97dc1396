package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "graphs")
	s := sample{Port: 8000, Extra: "kept"}
	if err := Load(write(t, "name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "graphs" || s.Port != 8000 || s.Extra != "kept" {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	s := sample{Port: 1}
	err := Load(write(t, "name: x\nnmae: y\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_Validates(t *testing.T) {
	var s sample
	err := Load(write(t, "port: 0\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	s := sample{Port: 3}
	if err := Load(write(t, ""), &s); err != nil {
		t.Errorf("empty file: %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	s := sample{Port: 5}
	if err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &s); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if s.Port != 5 {
		t.Errorf("defaults changed: %+v", s)
	}

	var bad sample
	if err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &bad); err == nil {
		t.Error("defaults must still be validated")
	}

	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Error("Load must fail on a missing file")
	}
}

package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	sigilerrors "github.com/sigil-ui/sigil/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.Inspector.Port != DefaultPort {
		t.Errorf("Inspector.Port = %d, want %d", cfg.Inspector.Port, DefaultPort)
	}
	if cfg.Inspector.Host != DefaultHost {
		t.Errorf("Inspector.Host = %q, want %q", cfg.Inspector.Host, DefaultHost)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if !cfg.Runtime.SlotCheck {
		t.Error("Runtime.SlotCheck should default to true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing sigil.json")
	}
	var se *sigilerrors.SigilError
	if !stderrors.As(err, &se) || se.Code != "E101" {
		t.Errorf("err = %v, want E101", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "{not json")

	_, err := Load(dir)
	var se *sigilerrors.SigilError
	if !stderrors.As(err, &se) || se.Code != "E102" {
		t.Errorf("err = %v, want E102", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name":"demo","inspector":{"port":9000}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "demo" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Inspector.Port != 9000 {
		t.Errorf("Inspector.Port = %d, want 9000", cfg.Inspector.Port)
	}
	if cfg.Inspector.Host != DefaultHost {
		t.Errorf("Inspector.Host = %q, want default", cfg.Inspector.Host)
	}
	if cfg.Bench.Entities != 1000 || cfg.Bench.Passes != 100 {
		t.Errorf("Bench defaults not applied: %+v", cfg.Bench)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Name = "roundtrip"
	path := filepath.Join(dir, ConfigFileName)

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Name != "roundtrip" {
		t.Errorf("Name = %q, want roundtrip", loaded.Name)
	}
	if loaded.Path() != path {
		t.Errorf("Path() = %q, want %q", loaded.Path(), path)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save without path should fail")
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.Inspector.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}

	cfg = New()
	cfg.Bench.Churn = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for churn > 1")
	}
}

func TestInspectorAddress(t *testing.T) {
	cfg := New()
	cfg.Inspector.Host = "0.0.0.0"
	cfg.Inspector.Port = 8080
	if got := cfg.InspectorAddress(); got != "0.0.0.0:8080" {
		t.Errorf("InspectorAddress() = %q", got)
	}
}

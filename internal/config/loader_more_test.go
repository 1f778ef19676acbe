package config

import (
	"strings"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/definitely/not/here/lmchat-12345.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadMalformedNamesFormat(t *testing.T) {
	d := t.TempDir()
	cases := []struct {
		name, content, prefix string
	}{
		{"bad.yaml", "model_url: https://example.com/m.gguf\n: broken\n", "parse yaml"},
		{"bad.json", `{"model_url": "https://example.com/m.gguf", "backends": }`, "parse json"},
		{"bad.toml", "model_url=\"https://example.com/m.gguf\"\nbackends\n", "parse toml"},
	}
	for _, tc := range cases {
		_, err := Load(writeTempFile(t, d, tc.name, tc.content))
		if err == nil || !strings.HasPrefix(err.Error(), tc.prefix) {
			t.Fatalf("%s: err = %v, want prefix %q", tc.name, err, tc.prefix)
		}
	}
}

func TestLoadRejectsScalarBackends(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "backends:\n  gpu: true\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for backends given as a mapping")
	}
}

func TestLoadExtensionCaseAndYml(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.YML", "model_url: https://example.com/phi.Q4_0.gguf\nbackends: [gpu, cpu]\nthreads: 4\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModelURL != "https://example.com/phi.Q4_0.gguf" || len(cfg.Backends) != 2 || cfg.Threads != 4 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

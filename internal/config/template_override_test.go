package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTemplateOverridesEmptyPath(t *testing.T) {
	overrides, err := LoadTemplateOverrides("")
	if err != nil {
		t.Fatalf("LoadTemplateOverrides(\"\"): %v", err)
	}
	if overrides != nil {
		t.Errorf("overrides = %v, want nil", overrides)
	}
}

func TestLoadTemplateOverridesParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	body := "Status:\n  IsPlayerDead: true\nPlayerInfo:\n  PlayerName: Vault111\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	overrides, err := LoadTemplateOverrides(path)
	if err != nil {
		t.Fatalf("LoadTemplateOverrides: %v", err)
	}

	merged := MergeOverrides(overrides)
	status, ok := merged["Status"].(map[string]interface{})
	if !ok {
		t.Fatalf("Status = %v, not a map", merged["Status"])
	}
	if status["IsPlayerDead"] != true {
		t.Errorf("IsPlayerDead = %v, want true", status["IsPlayerDead"])
	}
	if status["IsDataUnavailable"] != true {
		t.Errorf("IsDataUnavailable = %v, want true (default preserved)", status["IsDataUnavailable"])
	}
}

package config

import "testing"

func TestStartupTemplateStatusDefaults(t *testing.T) {
	tmpl := StartupTemplate()
	status, ok := tmpl["Status"].(map[string]interface{})
	if !ok {
		t.Fatalf("Status is not a map: %T", tmpl["Status"])
	}
	if status["IsDataUnavailable"] != true {
		t.Errorf("IsDataUnavailable = %v, want true", status["IsDataUnavailable"])
	}
	if status["IsPlayerDead"] != false {
		t.Errorf("IsPlayerDead = %v, want false", status["IsPlayerDead"])
	}
	color, ok := status["EffectColor"].([]interface{})
	if !ok || len(color) != 3 {
		t.Fatalf("EffectColor = %v, want 3-element slice", status["EffectColor"])
	}
	if color[0] != 0.08 || color[1] != 1.0 || color[2] != 0.09 {
		t.Errorf("EffectColor = %v, want [0.08 1.0 0.09]", color)
	}
}

func TestStartupTemplateEmptySections(t *testing.T) {
	tmpl := StartupTemplate()
	for _, key := range []string{"Inventory", "Map", "PlayerInfo", "Stats"} {
		m, ok := tmpl[key].(map[string]interface{})
		if !ok || len(m) != 0 {
			t.Errorf("%s = %v, want empty map", key, tmpl[key])
		}
	}
	for _, key := range []string{"Log", "Perks", "Quests", "Radio", "Special", "Workshop"} {
		l, ok := tmpl[key].([]interface{})
		if !ok || len(l) != 0 {
			t.Errorf("%s = %v, want empty slice", key, tmpl[key])
		}
	}
}

func TestMergeOverridesReplacesOnlyNamedKeys(t *testing.T) {
	merged := MergeOverrides(map[string]interface{}{
		"Status": map[string]interface{}{
			"IsPlayerDead": true,
		},
	})
	status := merged["Status"].(map[string]interface{})
	if status["IsPlayerDead"] != true {
		t.Errorf("IsPlayerDead = %v, want true (overridden)", status["IsPlayerDead"])
	}
	if status["IsDataUnavailable"] != true {
		t.Errorf("IsDataUnavailable = %v, want true (untouched default)", status["IsDataUnavailable"])
	}
	if _, ok := merged["Inventory"]; !ok {
		t.Error("expected Inventory section to survive merge untouched")
	}
}

func TestDefaultsListenAddr(t *testing.T) {
	d := Defaults()
	if d.ListenAddr != ":27000" {
		t.Errorf("ListenAddr = %q, want :27000", d.ListenAddr)
	}
}

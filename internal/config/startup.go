package config

// StartupTemplate returns the fixed nested value the server boots its Model
// from (§6.4): empty sub-containers for each top-level section plus a
// Status dict with explicit defaults. The shape and values are reproduced
// verbatim from the reference producer so a freshly booted server's
// snapshot matches what an original client expects to see.
func StartupTemplate() map[string]interface{} {
	return map[string]interface{}{
		"Inventory":  map[string]interface{}{},
		"Log":        []interface{}{},
		"Map":        map[string]interface{}{},
		"Perks":      []interface{}{},
		"PlayerInfo": map[string]interface{}{},
		"Quests":     []interface{}{},
		"Radio":      []interface{}{},
		"Special":    []interface{}{},
		"Stats":      map[string]interface{}{},
		"Status": map[string]interface{}{
			"EffectColor":            []interface{}{0.08, 1.0, 0.09},
			"IsDataUnavailable":      true,
			"IsInAnimation":          false,
			"IsInAutoVanity":         false,
			"IsInVats":               false,
			"IsInVatsPlayback":       false,
			"IsLoading":              false,
			"IsMenuOpen":             false,
			"IsPipboyNotEquipped":    true,
			"IsPlayerDead":           false,
			"IsPlayerInDialogue":     false,
			"IsPlayerMovementLocked": false,
			"IsPlayerPipboyLocked":   false,
		},
		"Workshop": []interface{}{},
	}
}

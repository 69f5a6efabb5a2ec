package config

// Presets are canned run configurations per network.
var Presets = map[string]map[string]*Config{
	"decay": {
		"short": {
			Network: "decay", DurationYr: 100, InitStepYr: 1e-3, Tolerance: 1e-6, WallSec: 60,
		},
		"long": {
			Network: "decay", DurationYr: 1e4, InitStepYr: 1e-3, Tolerance: 1e-6, WallSec: 300,
		},
	},
	"ionization": {
		"equilibrium": {
			Network: "ionization", DurationYr: 1e3, InitStepYr: 1e-4, Tolerance: 1e-6, WallSec: 300,
		},
		"coarse": {
			Network: "ionization", DurationYr: 1e3, InitStepYr: 1e-4, Tolerance: 1e-3, WallSec: 300,
		},
	},
	"grain": {
		"equilibrium": {
			Network: "grain", DurationYr: 1e4, InitStepYr: 1e-4, Tolerance: 1e-5, WallSec: 600,
		},
	},
}

func GetPreset(network, name string) *Config {
	group, ok := Presets[network]
	if !ok {
		return nil
	}
	return group[name]
}

func ListPresets(network string) []string {
	group, ok := Presets[network]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	return names
}

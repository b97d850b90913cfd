package config

import "sort"

// Presets overlay the defaults; unset fields keep their default value.
var Presets = map[string]func(*Config){
	// unicycle is the stock protocol.
	"unicycle": func(*Config) {},
	"quick": func(c *Config) {
		c.Trials = 50
		c.Nodes = 20
	},
	"converge": func(c *Config) {
		c.Trials = 100
		c.MaxIter = 50
		c.Implementations = []string{"native"}
	},
	"central": func(c *Config) {
		c.Verify.Scheme = "central"
		c.Verify.Scale = 1
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package seed

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Preset is a named seeding profile. Presets live in YAML files so demo
// environments can be reshaped without recompiling.
type Preset struct {
	Name     string `yaml:"name"`
	Users    int    `yaml:"users"`
	Posts    int    `yaml:"posts"`
	MaxDays  int    `yaml:"max_days"`
	DMPairs  int    `yaml:"dm_pairs"`
	Comment  string `yaml:"comment,omitempty"`
}

// builtinPresets cover the common demo shapes without needing a file.
var builtinPresets = map[string]Preset{
	"tiny": {
		Name: "tiny", Users: 5, Posts: 15, MaxDays: 7, DMPairs: 2,
	},
	"demo": {
		Name: "demo", Users: 25, Posts: 120, MaxDays: 30, DMPairs: 10,
	},
	"packed": {
		Name: "packed", Users: 100, Posts: 800, MaxDays: 90, DMPairs: 40,
	},
}

// BuiltinPresetNames lists the compiled-in presets, sorted.
func BuiltinPresetNames() []string {
	names := make([]string, 0, len(builtinPresets))
	for name := range builtinPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPresetFile reads a preset definition from a YAML file.
func LoadPresetFile(path string) (Preset, error) {
	raw, err := os.ReadFile(path) // #nosec G304: operator-supplied path
	if err != nil {
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}

	var p Preset
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Preset{}, fmt.Errorf("parse preset: %w", err)
	}
	if p.Users <= 0 || p.Posts < 0 {
		return Preset{}, fmt.Errorf("preset %q needs a positive user count", p.Name)
	}
	return p, nil
}

// ResolvePreset looks up a builtin preset by name, falling back to
// treating the argument as a YAML file path.
func ResolvePreset(nameOrPath string) (Preset, error) {
	if p, ok := builtinPresets[nameOrPath]; ok {
		return p, nil
	}
	return LoadPresetFile(nameOrPath)
}

// Apply runs a full seeding pass shaped by the preset.
func (s *Seeder) Apply(p Preset) error {
	users, err := s.SeedSocialMesh(p.Users)
	if err != nil {
		return err
	}
	if _, err := s.SeedEngagement(users, p.Posts, p.MaxDays); err != nil {
		return err
	}
	return s.SeedConversations(users, p.DMPairs)
}

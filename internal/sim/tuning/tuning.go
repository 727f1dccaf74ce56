package tuning

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed tuning.schema.json
var schemaJSON string

type Tuning struct {
	TickRateHz int   `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	Seed       int64 `yaml:"seed" json:"seed"`

	CellSize         float64 `yaml:"cell_size" json:"cell_size"`
	ProjectilePool   int     `yaml:"projectile_pool" json:"projectile_pool"`
	DamageNumberPool int     `yaml:"damage_number_pool" json:"damage_number_pool"`

	MaxEnemies           int     `yaml:"max_enemies" json:"max_enemies"`
	KillsPerWave         int     `yaml:"kills_per_wave" json:"kills_per_wave"`
	SpawnRateModifier    float64 `yaml:"spawn_rate_modifier" json:"spawn_rate_modifier"`
	EnemyDespawnDistance float64 `yaml:"enemy_despawn_distance" json:"enemy_despawn_distance"`

	PlayerMaxHP       float64 `yaml:"player_max_hp" json:"player_max_hp"`
	PlayerSpeed       float64 `yaml:"player_speed" json:"player_speed"`
	PlayerOrbitRadius float64 `yaml:"player_orbit_radius" json:"player_orbit_radius"`

	StartingAllies []string `yaml:"starting_allies" json:"starting_allies"`

	RateLimits RateLimits `yaml:"rate_limits" json:"rate_limits"`
}

type RateLimits struct {
	ControlWindowTicks int `yaml:"control_window_ticks" json:"control_window_ticks"`
	ControlMax         int `yaml:"control_max" json:"control_max"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:           30,
		Seed:                 1337,
		CellSize:             256,
		ProjectilePool:       5000,
		DamageNumberPool:     500,
		MaxEnemies:           2000,
		KillsPerWave:         50,
		SpawnRateModifier:    1.0,
		EnemyDespawnDistance: 2500,
		PlayerMaxHP:          100,
		PlayerSpeed:          300,
		PlayerOrbitRadius:    400,
		StartingAllies:       []string{"fire_imp", "ember_hound", "fire_imp"},
		RateLimits: RateLimits{
			ControlWindowTicks: 30,
			ControlMax:         10,
		},
	}
}

// Load validates the file against the tuning schema, then overlays it on Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := Validate(raw); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Validate checks a YAML document against the embedded JSON schema.
func Validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s, err := compileSchema()
	if err != nil {
		return err
	}
	return s.Validate(v)
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("tuning.schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile("tuning.schema.json")
}

// Digest is the sha256 of the canonical JSON form of t, the values actually applied.
func Digest(t Tuning) string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

//go:embed defaults/*.json
var defaultFS embed.FS

type Catalogs struct {
	Creatures   CreatureCatalog
	Enemies     EnemyCatalog
	Progression ProgressionCatalog
}

type CreatureCatalog struct {
	Palette []string
	Index   map[string]uint16
	// Defs is indexed by palette id.
	Defs   []CreatureDef
	Digest string
}

type CreatureDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier int    `json:"tier"`
	Type string `json:"type"` // "melee","ranged","support","assassin"

	BaseDamage    float64 `json:"base_damage"`
	AttackSpeed   float64 `json:"attack_speed"`
	BaseHP        float64 `json:"base_hp"`
	MovementSpeed float64 `json:"movement_speed"`
	AttackRange   float64 `json:"attack_range"`

	CritT1 float64 `json:"crit_t1"`
	CritT2 float64 `json:"crit_t2"`
	CritT3 float64 `json:"crit_t3"`

	RespawnTime float64 `json:"respawn_time,omitempty"`

	ProjectileCount       int `json:"projectile_count,omitempty"`
	ProjectilePenetration int `json:"projectile_penetration,omitempty"`

	// Color groups creatures for artifact and affinity bonuses.
	Color    string  `json:"color,omitempty"`
	Affinity float64 `json:"affinity,omitempty"`

	// KillsPerLevel[i] is the kill count taking the creature from level i+1
	// to i+2. MaxLevel caps it.
	KillsPerLevel []int `json:"kills_per_level,omitempty"`
	MaxLevel      int   `json:"max_level,omitempty"`

	EvolvesInto    string `json:"evolves_into,omitempty"`
	EvolutionCount int    `json:"evolution_count,omitempty"`
}

type EnemyCatalog struct {
	Palette []string
	Index   map[string]uint16
	Defs    []EnemyDef
	Digest  string
}

type EnemyDef struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Class         string     `json:"class"`
	BaseHP        float64    `json:"base_hp"`
	BaseDamage    float64    `json:"base_damage"`
	AttackSpeed   float64    `json:"attack_speed"`
	MovementSpeed float64    `json:"movement_speed"`
	AttackRange   float64    `json:"attack_range,omitempty"`
	XPValue       int        `json:"xp_value"`
	Spawn         []WaveBand `json:"spawn"`
}

// WaveBand weights an enemy for waves in [FromWave, ToWave]. ToWave 0 is open-ended.
type WaveBand struct {
	FromWave int     `json:"from_wave"`
	ToWave   int     `json:"to_wave,omitempty"`
	Weight   float64 `json:"weight"`
}

func (b WaveBand) Contains(wave int) bool {
	if wave < b.FromWave {
		return false
	}
	return b.ToWave <= 0 || wave <= b.ToWave
}

var creatureTypes = map[string]bool{"melee": true, "ranged": true, "support": true, "assassin": true}

var colors = map[string]bool{"red": true, "blue": true, "green": true, "white": true, "black": true, "colorless": true}

// Load reads creatures.json and enemies.json from configDir, plus the
// optional progression.json.
func Load(configDir string) (*Catalogs, error) {
	creatures, err := os.ReadFile(filepath.Join(configDir, "creatures.json"))
	if err != nil {
		return nil, err
	}
	enemies, err := os.ReadFile(filepath.Join(configDir, "enemies.json"))
	if err != nil {
		return nil, err
	}
	prog, err := os.ReadFile(filepath.Join(configDir, "progression.json"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return parse(creatures, enemies, prog)
}

// Defaults returns the built-in catalogs.
func Defaults() *Catalogs {
	creatures, _ := defaultFS.ReadFile("defaults/creatures.json")
	enemies, _ := defaultFS.ReadFile("defaults/enemies.json")
	prog, _ := defaultFS.ReadFile("defaults/progression.json")
	c, err := parse(creatures, enemies, prog)
	if err != nil {
		panic(fmt.Sprintf("catalogs: built-in defaults: %v", err))
	}
	return c
}

func parse(creatures, enemies, prog []byte) (*Catalogs, error) {
	var c Catalogs
	if err := parseCreatures(creatures, &c.Creatures); err != nil {
		return nil, err
	}
	if err := parseEnemies(enemies, &c.Enemies); err != nil {
		return nil, err
	}
	if err := parseProgression(prog, &c.Creatures, &c.Progression); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func palette(ids []string) ([]string, map[string]uint16) {
	sort.Strings(ids)
	idx := make(map[string]uint16, len(ids))
	for i, id := range ids {
		idx[id] = uint16(i)
	}
	return ids, idx
}

func parseCreatures(raw []byte, out *CreatureCatalog) error {
	var defs []CreatureDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("creatures.json: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("creatures.json: no creatures")
	}
	byID := make(map[string]CreatureDef, len(defs))
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("creatures.json: empty id")
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("creatures.json: duplicate id %q", d.ID)
		}
		if !creatureTypes[d.Type] {
			return fmt.Errorf("creatures.json: %s: unknown type %q", d.ID, d.Type)
		}
		if d.Tier <= 0 {
			d.Tier = 1
		}
		if d.ProjectileCount <= 0 {
			d.ProjectileCount = 1
		}
		if d.ProjectilePenetration <= 0 {
			d.ProjectilePenetration = 1
		}
		if d.Color == "" {
			d.Color = "colorless"
		}
		if !colors[d.Color] {
			return fmt.Errorf("creatures.json: %s: unknown color %q", d.ID, d.Color)
		}
		if d.MaxLevel <= 0 {
			d.MaxLevel = 1 + len(d.KillsPerLevel)
		}
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	for _, d := range defs {
		if d.EvolvesInto == "" {
			continue
		}
		if _, ok := byID[d.EvolvesInto]; !ok || d.EvolvesInto == d.ID {
			return fmt.Errorf("creatures.json: %s: bad evolves_into %q", d.ID, d.EvolvesInto)
		}
	}
	out.Palette, out.Index = palette(ids)
	out.Defs = make([]CreatureDef, len(out.Palette))
	for i, id := range out.Palette {
		out.Defs[i] = byID[id]
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func parseEnemies(raw []byte, out *EnemyCatalog) error {
	var defs []EnemyDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("enemies.json: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("enemies.json: no enemies")
	}
	byID := make(map[string]EnemyDef, len(defs))
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("enemies.json: empty id")
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("enemies.json: duplicate id %q", d.ID)
		}
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	out.Palette, out.Index = palette(ids)
	out.Defs = make([]EnemyDef, len(out.Palette))
	for i, id := range out.Palette {
		out.Defs[i] = byID[id]
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func (c *CreatureCatalog) Get(id uint16) (CreatureDef, bool) {
	if int(id) >= len(c.Defs) {
		return CreatureDef{}, false
	}
	return c.Defs[id], true
}

func (c *EnemyCatalog) Get(id uint16) (EnemyDef, bool) {
	if int(id) >= len(c.Defs) {
		return EnemyDef{}, false
	}
	return c.Defs[id], true
}

// WeightsForWave collects the spawn weight of every enemy eligible at wave.
func (c *EnemyCatalog) WeightsForWave(wave int) map[string]float64 {
	out := map[string]float64{}
	for _, d := range c.Defs {
		for _, b := range d.Spawn {
			if b.Contains(wave) && b.Weight > 0 {
				out[d.ID] += b.Weight
			}
		}
	}
	return out
}

// PickForWave selects an enemy type for wave from a uniform roll.
func (c *EnemyCatalog) PickForWave(wave int, roll uint64) (uint16, bool) {
	id := SampleWeighted(c.WeightsForWave(wave), roll)
	if id == "" {
		return 0, false
	}
	idx, ok := c.Index[id]
	return idx, ok
}

// SampleWeighted picks a key with probability proportional to its weight.
// Keys are visited in sorted order so equal rolls give equal picks.
func SampleWeighted(weights map[string]float64, roll uint64) string {
	if len(weights) == 0 {
		return ""
	}
	ids := make([]string, 0, len(weights))
	var total float64
	for id, w := range weights {
		if w > 0 {
			ids = append(ids, id)
			total += w
		}
	}
	if total <= 0 || len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)

	r := float64(roll%1_000_000_000) / 1_000_000_000.0
	target := r * total

	var acc float64
	for _, id := range ids {
		acc += weights[id]
		if target < acc {
			return id
		}
	}
	return ids[len(ids)-1]
}

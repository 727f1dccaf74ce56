package catalogs

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ProgressionCatalog holds the level-up deck and the bonus sources it can
// grant. An absent progression.json leaves it empty.
type ProgressionCatalog struct {
	Artifacts     []ArtifactDef
	ArtifactIndex map[string]int
	// Affinity maps a color to its thresholds, ascending by Min.
	Affinity map[string][]AffinityThreshold
	Deck     []DeckCard
	Digest   string
}

type ArtifactDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier int    `json:"tier"`

	// TargetScope is "global", "color", "type" or "creature".
	TargetScope    string `json:"target_scope"`
	TargetColor    string `json:"target_color,omitempty"`
	TargetType     string `json:"target_type,omitempty"`
	TargetCreature string `json:"target_creature,omitempty"`

	DamageBonus      float64 `json:"damage_bonus,omitempty"`
	AttackSpeedBonus float64 `json:"attack_speed_bonus,omitempty"`
	HPBonus          float64 `json:"hp_bonus,omitempty"`
	CritT1Bonus      float64 `json:"crit_t1_bonus,omitempty"`
	CritT2Bonus      float64 `json:"crit_t2_bonus,omitempty"`
	CritT3Bonus      float64 `json:"crit_t3_bonus,omitempty"`
}

// AffinityThreshold applies once a color's affinity reaches Min. Mega and
// super crits stay locked for a color with thresholds until unlocked.
type AffinityThreshold struct {
	Min          float64 `json:"min"`
	DamageBonus  float64 `json:"damage_bonus,omitempty"`
	CritT1Bonus  float64 `json:"crit_t1_bonus,omitempty"`
	CritT2Unlock bool    `json:"crit_t2_unlock,omitempty"`
	CritT3Unlock bool    `json:"crit_t3_unlock,omitempty"`
}

const (
	CardCreature = "creature"
	CardArtifact = "artifact"
)

type DeckCard struct {
	Type   string  `json:"type"`
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}

type progressionFile struct {
	Artifacts []ArtifactDef `json:"artifacts"`
	Affinity  []struct {
		Color      string              `json:"color"`
		Thresholds []AffinityThreshold `json:"thresholds"`
	} `json:"affinity"`
	Deck []DeckCard `json:"deck"`
}

var artifactScopes = map[string]bool{"global": true, "color": true, "type": true, "creature": true}

func parseProgression(raw []byte, creatures *CreatureCatalog, out *ProgressionCatalog) error {
	out.ArtifactIndex = map[string]int{}
	out.Affinity = map[string][]AffinityThreshold{}
	if len(raw) == 0 {
		return nil
	}
	var f progressionFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("progression.json: %w", err)
	}

	for i, a := range f.Artifacts {
		if a.ID == "" {
			return fmt.Errorf("progression.json: artifact with empty id")
		}
		if _, dup := out.ArtifactIndex[a.ID]; dup {
			return fmt.Errorf("progression.json: duplicate artifact %q", a.ID)
		}
		if a.TargetScope == "" {
			a.TargetScope = "global"
		}
		if !artifactScopes[a.TargetScope] {
			return fmt.Errorf("progression.json: %s: unknown target_scope %q", a.ID, a.TargetScope)
		}
		if a.TargetScope == "creature" {
			if _, ok := creatures.Index[a.TargetCreature]; !ok {
				return fmt.Errorf("progression.json: %s: unknown target_creature %q", a.ID, a.TargetCreature)
			}
		}
		out.ArtifactIndex[a.ID] = i
		out.Artifacts = append(out.Artifacts, a)
	}

	for _, c := range f.Affinity {
		if !colors[c.Color] {
			return fmt.Errorf("progression.json: unknown affinity color %q", c.Color)
		}
		th := append([]AffinityThreshold(nil), c.Thresholds...)
		sort.SliceStable(th, func(i, j int) bool { return th[i].Min < th[j].Min })
		out.Affinity[c.Color] = th
	}

	for _, card := range f.Deck {
		switch card.Type {
		case CardCreature:
			if _, ok := creatures.Index[card.ID]; !ok {
				return fmt.Errorf("progression.json: deck: unknown creature %q", card.ID)
			}
		case CardArtifact:
			if _, ok := out.ArtifactIndex[card.ID]; !ok {
				return fmt.Errorf("progression.json: deck: unknown artifact %q", card.ID)
			}
		default:
			return fmt.Errorf("progression.json: deck: unknown card type %q", card.Type)
		}
		if card.Weight < 0 {
			return fmt.Errorf("progression.json: deck: %s has negative weight", card.ID)
		}
		out.Deck = append(out.Deck, card)
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func (p *ProgressionCatalog) Artifact(id string) (ArtifactDef, bool) {
	i, ok := p.ArtifactIndex[id]
	if !ok {
		return ArtifactDef{}, false
	}
	return p.Artifacts[i], true
}

package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"skin-advisor/internal/domain/entity"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

const (
	defaultScoreFloor    = 0.2
	defaultMaxCandidates = 3
)

// Default возвращает встроенный каталог
func Default() (*entity.TreatmentCatalog, error) {
	return Parse(defaultCatalog)
}

// Load читает каталог из файла; пустой путь означает встроенный каталог
func Load(path string) (*entity.TreatmentCatalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read treatment catalog: %w", err)
	}
	return Parse(data)
}

// Parse разбирает и проверяет каталог
func Parse(data []byte) (*entity.TreatmentCatalog, error) {
	var c entity.TreatmentCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode treatment catalog: %w", err)
	}

	if c.Version == "" {
		c.Version = "map-v1-rules"
	}
	if c.ScoreFloor <= 0 {
		c.ScoreFloor = defaultScoreFloor
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = defaultMaxCandidates
	}

	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(c *entity.TreatmentCatalog) error {
	if len(c.Treatments) == 0 {
		return fmt.Errorf("treatment catalog is empty")
	}

	known := make(map[entity.Condition]bool, len(entity.Conditions))
	for _, cond := range entity.Conditions {
		known[cond] = true
	}

	ids := make(map[string]bool, len(c.Treatments))
	for _, def := range c.Treatments {
		if def.ID == "" {
			return fmt.Errorf("treatment %q has no id", def.Name)
		}
		if ids[def.ID] {
			return fmt.Errorf("duplicate treatment id %q", def.ID)
		}
		ids[def.ID] = true

		if len(def.Conditions) == 0 {
			return fmt.Errorf("treatment %q has no conditions", def.ID)
		}
		for cond, rule := range def.Conditions {
			if !known[cond] {
				return fmt.Errorf("treatment %q: unknown condition %q", def.ID, cond)
			}
			if rule.Weight <= 0 {
				return fmt.Errorf("treatment %q: weight for %q must be positive", def.ID, cond)
			}
		}
	}

	for _, rule := range c.SafetyRules {
		if rule.Name == "" {
			return fmt.Errorf("safety rule without name")
		}
		for cond := range rule.ScoreAbove {
			if !known[cond] {
				return fmt.Errorf("safety rule %q: unknown condition %q", rule.Name, cond)
			}
		}
		for _, id := range rule.Blocks {
			if !ids[id] {
				return fmt.Errorf("safety rule %q blocks unknown treatment %q", rule.Name, id)
			}
		}
	}

	return nil
}

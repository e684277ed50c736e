package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// KPIConfig describes how one KPI is extracted for one ticker. Patterns are
// tried strictly in declaration order.
type KPIConfig struct {
	Patterns  []string `yaml:"patterns" json:"patterns"`
	Unit      string   `yaml:"unit" json:"unit"`
	Prefer    string   `yaml:"prefer,omitempty" json:"prefer,omitempty"`
	Normalize string   `yaml:"normalize,omitempty" json:"normalize,omitempty"`
}

// Mappings maps ticker -> KPI name -> extraction config.
//
// Example mappings.yaml entry:
//
//	PPL:
//	  EBITDA:
//	    patterns:
//	      - 'Adjusted EBITDA increased to \$?([0-9,]+) million'
//	      - 'EBITDA\s*\$?([0-9,]+)'
//	    unit: "CAD millions"
//	    prefer: "Adjusted"
//	    normalize: "strip_commas"
type Mappings map[string]map[string]KPIConfig

// LoadMappings reads and validates a mappings YAML file.
func LoadMappings(path string) (Mappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file: %w", err)
	}

	var m Mappings
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mappings file %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the structural shape of the mappings: every KPI entry needs
// at least one pattern. Regex syntax is deliberately not checked here; a
// pattern that fails to compile is treated as a non-match at extraction time
// so one bad pattern cannot take the whole configuration down.
func (m Mappings) Validate() error {
	for ticker, kpis := range m {
		if ticker == "" {
			return fmt.Errorf("mappings contain an empty ticker key")
		}
		for name, cfg := range kpis {
			if len(cfg.Patterns) == 0 {
				return fmt.Errorf("mapping %s/%s has no patterns", ticker, name)
			}
		}
	}
	return nil
}

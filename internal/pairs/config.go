// Package pairs loads trading pair definitions from YAML and syncs them to
// the database.
package pairs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pair is one trading pair entry in YAML.
type Pair struct {
	Symbol   string  `yaml:"symbol"`
	TickSize float64 `yaml:"tick_size"`
	LotSize  float64 `yaml:"lot_size"`
	// Optional per-pair fee overrides; zero means use the global rates.
	MakerFee float64 `yaml:"maker_fee"`
	TakerFee float64 `yaml:"taker_fee"`
}

// File is the top-level YAML structure.
type File struct {
	Pairs []Pair `yaml:"pairs"`
}

// Load reads pair definitions from a YAML file.
func Load(path string) ([]Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	for _, p := range file.Pairs {
		if p.Symbol == "" {
			return nil, fmt.Errorf("pair with empty symbol in %s", path)
		}
		if p.TickSize < 0 || p.LotSize < 0 {
			return nil, fmt.Errorf("pair %s: negative tick or lot size", p.Symbol)
		}
	}
	return file.Pairs, nil
}

// Defaults builds pair entries from a plain symbol list when no YAML file is
// configured.
func Defaults(symbols []string) []Pair {
	out := make([]Pair, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, Pair{Symbol: s, TickSize: 0.01, LotSize: 0.001})
	}
	return out
}

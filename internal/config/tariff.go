package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// TariffConfig is a dynamic tariff preset (examples/tariffs/*.yaml).
// Only FixedCosts enters the calculation; the rest is informational.
type TariffConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	// FixedCosts per year in currency (base fee, metering, ...).
	FixedCosts float64 `yaml:"fixed_costs"`
	// Surcharge per kWh on top of the market price, shown for reference.
	SurchargePerKWh float64 `yaml:"surcharge_per_kwh"`
	Description     string  `yaml:"description"`
}

// Tariff is a loaded preset with its id (file name without extension).
type Tariff struct {
	ID   string
	File string
	TariffConfig
}

type tariffFileWrapper struct {
	Tariff TariffConfig `yaml:"tariff"`
}

func LoadTariffFile(path string) (TariffConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TariffConfig{}, err
	}
	var w tariffFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return TariffConfig{}, err
	}
	if w.Tariff.FixedCosts < 0 {
		return TariffConfig{}, errors.New("tariff.fixed_costs must be >= 0")
	}
	return w.Tariff, nil
}

// LoadTariffs reads every *.yaml preset in dir, sorted by id.
// Files that fail to load are returned in skipped rather than failing the listing.
func LoadTariffs(dir string) (tariffs []Tariff, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	skipped = make(map[string]error)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		tc, err := LoadTariffFile(path)
		if err != nil {
			skipped[name] = err
			continue
		}
		id := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		if tc.Name == "" {
			tc.Name = id
		}
		tariffs = append(tariffs, Tariff{ID: id, File: path, TariffConfig: tc})
	}
	sort.Slice(tariffs, func(i, j int) bool { return tariffs[i].ID < tariffs[j].ID })
	return tariffs, skipped, nil
}

// FindTariff loads the preset with the given id from dir.
func FindTariff(dir, id string) (*Tariff, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, errors.New("invalid tariff id")
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		tc, err := LoadTariffFile(path)
		if err != nil {
			return nil, err
		}
		if tc.Name == "" {
			tc.Name = id
		}
		return &Tariff{ID: id, File: path, TariffConfig: tc}, nil
	}
	return nil, os.ErrNotExist
}

// MergeTariff overlays non-zero fields from override onto base.
// This is used when loading a tariff file and then applying overrides from the command line.
func MergeTariff(base, override TariffConfig) TariffConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Provider != "" {
		out.Provider = override.Provider
	}
	if override.FixedCosts != 0 {
		out.FixedCosts = override.FixedCosts
	}
	if override.SurchargePerKWh != 0 {
		out.SurchargePerKWh = override.SurchargePerKWh
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	return out
}

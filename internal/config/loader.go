package config

import (
	"os"

	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"main/pkg/exception"
)

// Load reads and parses the YAML configuration at path.
func Load(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	return &cfg, nil
}

// Validate checks the structural invariants that do not require touching
// the filesystem.
func (c *FileConfig) Validate() error {
	if c.Simulation.Start == "" {
		return errors.Wrap(exception.ErrConfigMissingOption, "simulation.start")
	}
	if c.Simulation.End == "" {
		return errors.Wrap(exception.ErrConfigMissingOption, "simulation.end")
	}
	if len(c.Exchanges) == 0 {
		return errors.Wrap(exception.ErrConfigMissingOption, "exchanges")
	}
	if len(c.TradedPairs) == 0 {
		return errors.Wrap(exception.ErrConfigMissingOption, "traded_pairs")
	}

	names := make(map[string]struct{}, len(c.Exchanges))
	for _, ex := range c.Exchanges {
		if ex.Name == "" {
			return errors.Wrap(exception.ErrConfigMissingOption, "exchanges[].name")
		}
		if _, dup := names[ex.Name]; dup {
			return errors.Wrapf(exception.ErrConfigBadOption, "duplicate exchange %s", ex.Name)
		}
		names[ex.Name] = struct{}{}
	}

	for _, p := range c.TradedPairs {
		if _, ok := names[p.Exchange]; !ok {
			return errors.Wrapf(exception.ErrConfigBadOption, "pair %s/%s references unknown exchange %s", p.Base, p.Quoted, p.Exchange)
		}
		if p.PriceStep == "" {
			return errors.Wrapf(exception.ErrConfigMissingOption, "pair %s/%s price_step", p.Base, p.Quoted)
		}
		if len(p.Trd.PathList) == 0 {
			return errors.Wrapf(exception.ErrConfigMissingOption, "pair %s/%s trd.path_list", p.Base, p.Quoted)
		}
		if len(p.Prl.PathList) == 0 {
			return errors.Wrapf(exception.ErrConfigMissingOption, "pair %s/%s prl.path_list", p.Base, p.Quoted)
		}
	}

	return nil
}

// LoadAndValidate combines Load and Validate.
func LoadAndValidate(path string) (*FileConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

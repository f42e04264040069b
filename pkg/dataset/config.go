// Copyright © 2018 One Concern

package dataset

import (
	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"
)

// Config is the constructor configuration recognized by every dataset
// type in this family.
type Config struct {
	// Filepath is the logical path of the dataset, possibly protocol-prefixed
	Filepath string `mapstructure:"filepath"`

	// LoadArgs and SaveArgs are passed through verbatim to the codec.
	// A nested "storage_options" key is rejected with a warning: backend
	// options flow through FSArgs or Credentials only.
	LoadArgs map[string]interface{} `mapstructure:"load_args"`
	SaveArgs map[string]interface{} `mapstructure:"save_args"`

	// Credentials holds backend authentication options. Never rendered in
	// error messages or string representations.
	Credentials map[string]interface{} `mapstructure:"credentials"`

	// FSArgs holds extra backend options (region, endpoint, headers, ...)
	FSArgs map[string]interface{} `mapstructure:"fs_args"`

	// Version enables versioned mode when non-nil
	Version *Version `mapstructure:"version"`
}

// FromMap decodes a catalog-style configuration map into a Config.
func FromMap(m map[string]interface{}) (Config, error) {
	var (
		cfg  Config
		errs error
	)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return cfg, newConfigError("cannot build config decoder: %v", err)
	}
	if err := decoder.Decode(m); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.Filepath == "" {
		errs = multierr.Append(errs, newConfigError("'filepath' is required"))
	}
	if errs != nil {
		return cfg, newConfigError("invalid dataset configuration: %v", errs)
	}
	return cfg, nil
}

// Package config loads env-tagged configuration structs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses the process environment into cfg. Fields are mapped with `env`
// and `envDefault` tags:
//
//	type Config struct {
//	    Port  int    `env:"SEARCH_HTTP_PORT" envDefault:"8010"`
//	    Index string `env:"ELASTICSEARCH_INDEX" envDefault:"products-catalog"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadFrom parses vars instead of the process environment. Missing keys take
// their envDefault.
func LoadFrom(cfg any, vars map[string]string) error {
	if vars == nil {
		vars = map[string]string{}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

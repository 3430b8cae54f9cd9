// Copyright (C) 2025 VisitGrid Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package config aggregates configuration for the application.
package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates configuration for all commands. Command-line flags
// override these values; these in turn override the built-in defaults.
type Config struct {
	Fields FieldsConfig `mapstructure:"fields"`
	Reader ReaderConfig `mapstructure:"reader"`
	Output OutputConfig `mapstructure:"output"`
}

// FieldsConfig names the columns and properties the inputs use.
type FieldsConfig struct {
	Agent     string `mapstructure:"agent"`
	Latitude  string `mapstructure:"latitude"`
	Longitude string `mapstructure:"longitude"`
	GridID    string `mapstructure:"grid_id"`
}

// ReaderConfig tunes trajectory file reading.
type ReaderConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// OutputConfig controls partitioned output.
type OutputConfig struct {
	// Filename overrides the per-cell visits filename. Empty means
	// visits_bucket<bucket>.csv.
	Filename string `mapstructure:"filename"`

	// Unassigned routes points outside every cell to a cell_unassigned
	// folder instead of dropping them.
	Unassigned bool `mapstructure:"unassigned"`
}

// Default returns the built-in configuration, matching the column
// names trajectory parquet files conventionally use.
func Default() *Config {
	return &Config{
		Fields: FieldsConfig{
			Agent:     "agent",
			Latitude:  "latitude",
			Longitude: "longitude",
			GridID:    "cell_id",
		},
		Reader: ReaderConfig{BatchSize: 1000},
	}
}

// Load reads configuration from an optional config file and environment
// variables. Environment variables use the prefix "VISITGRID" and the
// dot character in keys is replaced by an underscore, so "fields.agent"
// becomes "VISITGRID_FIELDS_AGENT".
func Load() (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("VISITGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/ajroetker/go-subgroup/subgroup"
)

// Config holds sgmask settings. Environment variables use the SGMASK_
// prefix; command-line flags override them.
type Config struct {
	GlobalSize   int    `envconfig:"GLOBAL_SIZE" default:"256"`
	LocalSize    int    `envconfig:"LOCAL_SIZE" default:"128"`
	SubGroupSize int    `envconfig:"SUBGROUP_SIZE" default:"0"` // 0 means subgroup.DefaultSize()
	Workers      int    `envconfig:"WORKERS" default:"0"`       // 0 means GOMAXPROCS
	Samples      int    `envconfig:"SAMPLES" default:"64"`
	Seed         uint64 `envconfig:"SEED" default:"1"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadConfig reads envFile (if it exists) into the environment and then
// processes SGMASK_* variables.
func LoadConfig(envFile string) (Config, error) {
	var cfg Config
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if err := envconfig.Process("SGMASK", &cfg); err != nil {
		return cfg, fmt.Errorf("processing environment: %w", err)
	}
	return cfg, nil
}

// ApplyFlags overrides cfg with every flag the user set explicitly.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	var err error
	set := func(name string, fn func() error) {
		if err == nil && flags.Lookup(name) != nil && flags.Changed(name) {
			err = fn()
		}
	}
	set("global", func() (e error) { c.GlobalSize, e = flags.GetInt("global"); return })
	set("local", func() (e error) { c.LocalSize, e = flags.GetInt("local"); return })
	set("sg-size", func() (e error) { c.SubGroupSize, e = flags.GetInt("sg-size"); return })
	set("workers", func() (e error) { c.Workers, e = flags.GetInt("workers"); return })
	set("samples", func() (e error) { c.Samples, e = flags.GetInt("samples"); return })
	set("seed", func() (e error) { c.Seed, e = flags.GetUint64("seed"); return })
	set("log-level", func() (e error) { c.LogLevel, e = flags.GetString("log-level"); return })
	set("log-format", func() (e error) { c.LogFormat, e = flags.GetString("log-format"); return })
	return err
}

// Validate checks settings that do not depend on the command.
func (c Config) Validate() error {
	if c.SubGroupSize != 0 && !subgroup.ValidWidth(c.SubGroupSize) {
		return fmt.Errorf("sub-group size %d: %w", c.SubGroupSize, subgroup.ErrInvalidWidth)
	}
	if c.Samples < 0 {
		return fmt.Errorf("samples must not be negative, got %d", c.Samples)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// SubGroup returns the configured sub-group size or the host default.
func (c Config) SubGroup() int {
	if c.SubGroupSize == 0 {
		return subgroup.DefaultSize()
	}
	return c.SubGroupSize
}

// Logger builds the slog logger the configuration describes.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

/*
 * config.go, part of gostk.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package config loads the configuration of the gostk command: a YAML file,
//overridden by GOSTK_* environment variables (GOSTK_MACROMODEL_PATH for macromodel.path).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "GOSTK"

type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Cache struct {
	Enabled bool `mapstructure:"enabled"`
}

type Optimize struct {
	Workers  int  `mapstructure:"workers"`
	Parallel bool `mapstructure:"parallel"`
}

type MacroModel struct {
	Path       string        `mapstructure:"path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ScratchDir string        `mapstructure:"scratch_dir"`
	KeepFiles  bool          `mapstructure:"keep_files"`
}

type Metrics struct {
	Addr string `mapstructure:"addr"` //empty disables the endpoint
}

//Config of the gostk command.
type Config struct {
	Log        Log        `mapstructure:"log"`
	Cache      Cache      `mapstructure:"cache"`
	Optimize   Optimize   `mapstructure:"optimize"`
	MacroModel MacroModel `mapstructure:"macromodel"`
	Metrics    Metrics    `mapstructure:"metrics"`
}

var defaults = map[string]interface{}{
	"log.level":              "info",
	"log.development":        false,
	"cache.enabled":          true,
	"optimize.workers":       0,
	"optimize.parallel":      true,
	"macromodel.path":        "",
	"macromodel.timeout":     "2h",
	"macromodel.scratch_dir": "",
	"macromodel.keep_files":  false,
	"metrics.addr":           "",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

//Load reads the configuration file at path, if path is not empty, applies the
//environment overrides and the defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: can't read %q: %w", path, err)
		}
	}
	C := &Config{}
	if err := v.Unmarshal(C); err != nil {
		return nil, fmt.Errorf("config: can't decode: %w", err)
	}
	if err := C.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return C, nil
}

//Validate checks the values.
func (C *Config) Validate() error {
	if _, err := zapcore.ParseLevel(C.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if C.Optimize.Workers < 0 {
		return fmt.Errorf("optimize.workers can't be negative (%d)", C.Optimize.Workers)
	}
	if C.MacroModel.Timeout < 0 {
		return fmt.Errorf("macromodel.timeout can't be negative (%v)", C.MacroModel.Timeout)
	}
	return nil
}

//Logger returns the logger for the configured level.
func (C *Config) Logger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(C.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if C.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

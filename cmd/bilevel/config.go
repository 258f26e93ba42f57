/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/
package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/costela/bilevel"
)

// flagKeys maps configuration keys to the flags overriding them.
var flagKeys = map[string]string{
	"resolve_subproblem": "resolve-subproblem",
	"use_dual_objective": "use-dual-objective",
	"solver":             "solver",
	"mipgap":             "mipgap",
	"bigM":               "bigM",
	"tee":                "tee",
	"timelimit":          "timelimit",
}

func registerSolveFlags(fs *pflag.FlagSet) {
	def := bilevel.DefaultConfig()

	fs.Bool("resolve-subproblem", def.ResolveSubproblem, "Re-solve the lower level with the upper-level decisions fixed")
	fs.Bool("use-dual-objective", def.UseDualObjective, "Drive the single-level solve with the dual objective")
	fs.String("solver", def.Solver, "Subsolver name")
	fs.Float64("mipgap", def.MIPGap, "Relative MIP gap passed to the subsolver")
	fs.Float64("bigM", def.BigM, "Big-M constant of the linearization")
	fs.Bool("tee", def.Tee, "Stream the subsolver log")
	fs.Duration("timelimit", def.TimeLimit, "Per-invocation time limit (0 for none)")
}

// loadConfig layers, from lowest to highest precedence: defaults, the
// config file at path, BILEVEL_* environment variables and changed flags.
func loadConfig(fs *pflag.FlagSet, path string) (bilevel.Config, error) {
	v := viper.New()

	def := bilevel.DefaultConfig()
	v.SetDefault("resolve_subproblem", def.ResolveSubproblem)
	v.SetDefault("use_dual_objective", def.UseDualObjective)
	v.SetDefault("solver", def.Solver)
	v.SetDefault("mipgap", def.MIPGap)
	v.SetDefault("bigM", def.BigM)
	v.SetDefault("tee", def.Tee)
	v.SetDefault("timelimit", def.TimeLimit)

	v.SetEnvPrefix("BILEVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return bilevel.Config{}, errors.Wrap(err, "reading config file")
		}
	}

	for key, name := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return bilevel.Config{}, errors.Wrapf(err, "binding flag %q", name)
			}
		}
	}

	var cfg bilevel.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return bilevel.Config{}, errors.Wrap(err, "decoding configuration")
	}

	return cfg, nil
}

// Package config resolves hudsync's runtime settings from flags,
// environment variables, and a YAML config file (in that precedence,
// viper's default), and holds the fixed startup template the server boots its
// Model from.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved set of knobs every hudsync binary reads at
// startup.
type Config struct {
	ListenAddr       string `mapstructure:"listen-addr"`
	DiscoveryEnabled bool   `mapstructure:"discovery-enabled"`
	LogLevel         string `mapstructure:"log-level"`
	LogFile          string `mapstructure:"log-file"`
	TemplatePath     string `mapstructure:"template"`
}

// Defaults returns the baseline configuration before flags, file, or env
// overrides are applied.
func Defaults() Config {
	return Config{
		ListenAddr:       fmt.Sprintf(":%d", TCPPort),
		DiscoveryEnabled: true,
		LogLevel:         "warn",
		LogFile:          "",
		TemplatePath:     "",
	}
}

// TCPPort is the fixed port the server role binds and the client role
// dials (§6.1).
const TCPPort = 27000

// BindFlags registers the persistent flags shared by every hudsync command
// and binds them into v, mirroring the precedence flags > env > file that
// viper applies by default.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	d := Defaults()

	cmd.PersistentFlags().String("listen-addr", d.ListenAddr, "address the server binds for the TCP stream")
	cmd.PersistentFlags().Bool("discovery-enabled", d.DiscoveryEnabled, "participate in UDP autodiscovery")
	cmd.PersistentFlags().String("log-level", d.LogLevel, "log level: debug, info, warn, error, fatal")
	cmd.PersistentFlags().String("log-file", d.LogFile, "also log to this file")
	cmd.PersistentFlags().String("config", "", "path to a YAML config file")
	cmd.PersistentFlags().String("template", d.TemplatePath, "path to a YAML startup template override")

	v.BindPFlags(cmd.PersistentFlags())
}

// Load resolves a Config from v, having already applied flags, environment
// variables, and an optional config file named by the --config flag.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix("HUDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: reading %s", path)
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	})); err != nil {
		return Config{}, errors.Wrap(err, "config: decoding settings")
	}
	return cfg, nil
}

// MergeOverrides layers a caller-supplied partial startup value (typically
// parsed from a YAML override file) on top of StartupTemplate's defaults,
// replacing only the keys the override sets. Nested maps are merged one
// level deep, matching the shallow, section-at-a-time shape of the
// template (§6.4); lists and scalars are replaced wholesale.
func MergeOverrides(overrides map[string]interface{}) map[string]interface{} {
	base := StartupTemplate()
	for key, val := range overrides {
		baseVal, ok := base[key].(map[string]interface{})
		overrideVal, overrideIsMap := val.(map[string]interface{})
		if ok && overrideIsMap {
			merged := make(map[string]interface{}, len(baseVal))
			for k, v := range baseVal {
				merged[k] = v
			}
			for k, v := range overrideVal {
				merged[k] = v
			}
			base[key] = merged
			continue
		}
		base[key] = val
	}
	return base
}

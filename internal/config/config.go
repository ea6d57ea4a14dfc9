// Package config wires up garlic's viper-backed settings: the worker
// count default, output-directory naming, and log format. It follows
// the teacher's Initialize/setDefaults/addSearchPaths shape, trimmed to
// the settings a decompiler actually needs.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	// AppName is used for config file discovery (garlic.yaml).
	AppName = "garlic"

	// EnvPrefix is the prefix for environment variable overrides, e.g.
	// GARLIC_WORKERS.
	EnvPrefix = "GARLIC"
)

// AppConfig holds garlic's runtime configuration.
type AppConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// Workers is the default worker-pool size used when -t is not
	// given on the command line. Clamped the same way an explicit -t
	// value is (see internal/worker.ClampWorkers).
	Workers int `mapstructure:"workers"`
}

var (
	// Instance is the global, process-wide configuration.
	Instance AppConfig

	ConfigLoaded bool
	ConfigFile   string

	v        *viper.Viper
	initOnce sync.Once
)

// Initialize loads configuration from cfgFile when it is non-empty,
// otherwise from garlic.yaml in the current directory, and from
// GARLIC_* environment variables, which take precedence over values
// read from the file.
func Initialize(cfgFile string) error {
	var err error

	initOnce.Do(func() {
		v = viper.New()
		setDefaults(v)

		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			v.SetConfigName(AppName)
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		}

		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("error reading config file: %w", readErr)
				return
			}
			ConfigLoaded = false
			ConfigFile = ""
		} else {
			ConfigLoaded = true
			ConfigFile = v.ConfigFileUsed()
		}

		if unmarshalErr := v.Unmarshal(&Instance); unmarshalErr != nil {
			err = fmt.Errorf("error parsing config: %w", unmarshalErr)
		}
	})

	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")
	v.SetDefault("workers", 4)
}

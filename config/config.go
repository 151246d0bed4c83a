package config

import (
	"fmt"
	"os"
	"os/user"
	"path"
	"reflect"

	"github.com/creasty/defaults"
)

//Version is filled at compile time with the git version of flowstat
//Version is filled by "git describe --abbrev=0 --tags"
var Version = "undefined"

//ExactVersion is filled by "git describe --always --long --dirty --tags"
var ExactVersion = "undefined"

type (
	//Config holds the configuration for the running system
	Config struct {
		R RunningCfg
		S StaticCfg
		T TableCfg
	}
)

//systemConfigPaths are searched in order when no config file is given
func systemConfigPaths() []string {
	var paths []string
	if usr, err := user.Current(); err == nil {
		paths = append(paths, path.Join(usr.HomeDir, ".flowstat", "config.yaml"))
	}
	return append(paths, "/etc/flowstat/config.yaml")
}

// LoadConfig retrieves a configuration in order of precedence. An explicitly
// requested file must exist. Otherwise the user and system configs are tried
// and the built in defaults are used if neither is present.
func LoadConfig(cfgPath string) (*Config, error) {
	if cfgPath != "" {
		return loadConfigFile(cfgPath)
	}

	for _, candidate := range systemConfigPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return loadConfigFile(candidate)
		}
	}

	return loadConfigBytes(nil)
}

// loadConfigFile attempts to parse a config file
func loadConfigFile(cfgPath string) (*Config, error) {
	cfgFile, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cfgPath, err)
	}
	return loadConfigBytes(cfgFile)
}

// loadConfigBytes initializes every config section from its defaults,
// overlays the given yaml document, and derives the running config
func loadConfigBytes(cfgFile []byte) (*Config, error) {
	config := &Config{}

	// Initialize table config to the default values
	if err := defaults.Set(&config.T); err != nil {
		return nil, err
	}

	// Initialize static config to the default values
	if err := defaults.Set(&config.S); err != nil {
		return nil, err
	}

	// Deserialize the yaml file contents into the static config
	if err := parseStaticConfig(cfgFile, &config.S); err != nil {
		return nil, err
	}

	// Use the static config to initialize the running config
	if err := initRunningConfig(&config.S, &config.R); err != nil {
		return nil, err
	}

	return config, nil
}

// expandConfig expands environment variables in config strings
func expandConfig(reflected reflect.Value) {
	for i := 0; i < reflected.NumField(); i++ {
		f := reflected.Field(i)
		// process sub configs
		if f.Kind() == reflect.Struct {
			expandConfig(f)
		} else if f.Kind() == reflect.String {
			f.SetString(os.ExpandEnv(f.String()))
		} else if f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String {
			strs := f.Interface().([]string)
			for i, str := range strs {
				strs[i] = os.ExpandEnv(str)
			}
			f.Set(reflect.ValueOf(strs))
		}
	}
}

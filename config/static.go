package config

import (
	"fmt"
	"path/filepath"
	"reflect"

	yaml "gopkg.in/yaml.v2"
)

type (
	//StaticCfg is the container for other static config sections
	StaticCfg struct {
		MongoDB      MongoDBStaticCfg   `yaml:"MongoDB"`
		Log          LogStaticCfg       `yaml:"LogConfig"`
		Analysis     AnalysisStaticCfg  `yaml:"Analysis"`
		Filtering    FilteringStaticCfg `yaml:"Filtering"`
		Output       OutputStaticCfg    `yaml:"Output"`
		Version      string             `yaml:"-"`
		ExactVersion string             `yaml:"-"`
	}

	//MongoDBStaticCfg contains the means for connecting to MongoDB.
	//Persistence is skipped entirely when ConnectionString is empty.
	MongoDBStaticCfg struct {
		ConnectionString string       `yaml:"ConnectionString"`
		AuthMechanism    string       `yaml:"AuthenticationMechanism"`
		SocketTimeout    int          `yaml:"SocketTimeout" default:"2"`
		TLS              TLSStaticCfg `yaml:"TLS"`
		Database         string       `yaml:"Database" default:"flowstat"`
	}

	//TLSStaticCfg contains the means for connecting to MongoDB over TLS
	TLSStaticCfg struct {
		Enabled           bool   `yaml:"Enable"`
		VerifyCertificate bool   `yaml:"VerifyCertificate"`
		CAFile            string `yaml:"CAFile"`
	}

	//LogStaticCfg contains the configuration for logging
	LogStaticCfg struct {
		LogLevel      int    `yaml:"LogLevel" default:"2"`
		LogPath       string `yaml:"LogPath" default:"/var/lib/flowstat/logs"`
		LogToFile     bool   `yaml:"LogToFile"`
		LogToDB       bool   `yaml:"LogToDB"`
		RotationHours int    `yaml:"RotationHours" default:"1"`
		MaxAgeHours   int    `yaml:"MaxAgeHours" default:"24"`
	}

	//AnalysisStaticCfg tunes the statistics computed for each run
	AnalysisStaticCfg struct {
		Protocol           string `yaml:"Protocol" default:"TCP"`
		WindowSize         int    `yaml:"WindowSize" default:"10"`
		TopN               int    `yaml:"TopN" default:"10"`
		HeatmapIPs         int    `yaml:"HeatmapIPs" default:"10"`
		IgnoreZeroOutliers bool   `yaml:"IgnoreZeroOutliers" default:"true"`
	}

	//FilteringStaticCfg selects which packet records take part in a run
	FilteringStaticCfg struct {
		AlwaysInclude []string `yaml:"AlwaysInclude"`
		NeverInclude  []string `yaml:"NeverInclude"`
		Expression    string   `yaml:"Expression"`
	}

	//OutputStaticCfg controls where the statistics documents are written
	OutputStaticCfg struct {
		Directory   string `yaml:"Directory" default:"."`
		FullFile    string `yaml:"FullFile" default:"stats_full.json"`
		SummaryFile string `yaml:"SummaryFile" default:"stats_summary.json"`
		Indent      bool   `yaml:"Indent" default:"true"`
	}
)

// parseStaticConfig parses the yaml document in cfgFile into config,
// expands environment variables, and validates the result
func parseStaticConfig(cfgFile []byte, config *StaticCfg) error {
	err := yaml.Unmarshal(cfgFile, config)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// expand env variables, config is a pointer
	// so we have to call elem on the reflect value
	expandConfig(reflect.ValueOf(config).Elem())

	// clean all filepaths
	if config.Log.LogPath != "" {
		config.Log.LogPath = filepath.Clean(config.Log.LogPath)
	}
	if config.Output.Directory != "" {
		config.Output.Directory = filepath.Clean(config.Output.Directory)
	}

	// grab the version constants set by the build process
	config.Version = Version
	config.ExactVersion = ExactVersion

	return validateStaticConfig(config)
}

// validateStaticConfig rejects settings the analysis cannot run with
func validateStaticConfig(config *StaticCfg) error {
	if config.Analysis.WindowSize <= 0 {
		return fmt.Errorf("Analysis.WindowSize must be positive, got %d", config.Analysis.WindowSize)
	}
	if config.Analysis.TopN <= 0 {
		return fmt.Errorf("Analysis.TopN must be positive, got %d", config.Analysis.TopN)
	}
	if config.Analysis.HeatmapIPs <= 0 {
		return fmt.Errorf("Analysis.HeatmapIPs must be positive, got %d", config.Analysis.HeatmapIPs)
	}
	if config.Analysis.Protocol == "" {
		return fmt.Errorf("Analysis.Protocol must not be empty")
	}
	return nil
}

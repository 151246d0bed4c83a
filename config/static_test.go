package config

import (
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
)

const staticConfigParserTestConfig = `
MongoDB:
    ConnectionString: mongodb://localhost:27017
    AuthenticationMechanism: null
    SocketTimeout: 2
    TLS:
        Enable: false
        VerifyCertificate: false
        CAFile: aaaaa
    Database: flowstat-prod
LogConfig:
    LogLevel: 2
    LogPath: /var/lib/flowstat/logs
    LogToFile: true
    LogToDB: true
    RotationHours: 6
    MaxAgeHours: 48
Analysis:
    Protocol: TCP
    WindowSize: 20
    TopN: 15
    HeatmapIPs: 5
    IgnoreZeroOutliers: false
Filtering:
    AlwaysInclude: ["8.8.8.8/32"]
    NeverInclude: ["8.8.4.4/32"]
    Expression: dst_port == 443
Output:
    Directory: /tmp/out
    FullFile: full.json
    SummaryFile: summary.json
    Indent: false
`

var testConfigFullExp = StaticCfg{
	MongoDB: MongoDBStaticCfg{
		ConnectionString: "mongodb://localhost:27017",
		AuthMechanism:    "",
		SocketTimeout:    2,
		TLS: TLSStaticCfg{
			Enabled:           false,
			VerifyCertificate: false,
			CAFile:            "aaaaa",
		},
		Database: "flowstat-prod",
	},
	Log: LogStaticCfg{
		LogLevel:      2,
		LogPath:       "/var/lib/flowstat/logs",
		LogToFile:     true,
		LogToDB:       true,
		RotationHours: 6,
		MaxAgeHours:   48,
	},
	Analysis: AnalysisStaticCfg{
		Protocol:           "TCP",
		WindowSize:         20,
		TopN:               15,
		HeatmapIPs:         5,
		IgnoreZeroOutliers: false,
	},
	Filtering: FilteringStaticCfg{
		AlwaysInclude: []string{"8.8.8.8/32"},
		NeverInclude:  []string{"8.8.4.4/32"},
		Expression:    "dst_port == 443",
	},
	Output: OutputStaticCfg{
		Directory:   "/tmp/out",
		FullFile:    "full.json",
		SummaryFile: "summary.json",
		Indent:      false,
	},
}

// TestParseStaticConfig ensures that a yaml config
// string is correctly converted into a StaticCfg struct.
func TestParseStaticConfig(t *testing.T) {
	config := &StaticCfg{}
	err := parseStaticConfig([]byte(staticConfigParserTestConfig), config)

	// We are not testing the version setting ensure they are equal
	testConfigFullExp.Version = config.Version
	testConfigFullExp.ExactVersion = config.ExactVersion

	assert.Nil(t, err)
	assert.Equal(t, testConfigFullExp, *config)
}

// TestFilePathCleaning ensures that paths specified
// in a config file are cleaned up correctly.
func TestFilePathCleaning(t *testing.T) {
	testConfig := `
LogConfig:
    LogPath: /var/lib/flowstat/incorrect/./../logs/
Output:
    Directory: ./results/../out/
`
	config := &StaticCfg{}
	assert.Nil(t, defaults.Set(config))
	err := parseStaticConfig([]byte(testConfig), config)

	assert.Nil(t, err)
	assert.Equal(t, "/var/lib/flowstat/logs", config.Log.LogPath)
	assert.Equal(t, "out", config.Output.Directory)
}

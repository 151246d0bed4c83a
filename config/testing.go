package config

import "github.com/blang/semver"

const testConfig = `
MongoDB:
    ConnectionString: ""
    AuthenticationMechanism: ""
    SocketTimeout: 2
    TLS:
        Enable: false
        VerifyCertificate: false
        CAFile: ""
    Database: FLOWSTAT-TEST
LogConfig:
    LogLevel: 3
    LogPath: ""
    LogToFile: false
    LogToDB: false
Analysis:
    Protocol: TCP
    WindowSize: 10
    TopN: 10
    HeatmapIPs: 10
    IgnoreZeroOutliers: true
Filtering:
    AlwaysInclude: []
    NeverInclude: []
    Expression: ""
Output:
    Directory: .
    Indent: false
`

// LoadTestingConfig loads the hard coded testing config
func LoadTestingConfig() (*Config, error) {
	config, err := loadConfigBytes([]byte(testConfig))
	if err != nil {
		return nil, err
	}

	config.S.Version = "v0.0.0+testing"
	config.S.ExactVersion = "v0.0.0+testing"
	config.R.Version = semver.MustParse("0.0.0+testing")
	return config, nil
}

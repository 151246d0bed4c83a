package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/DaviCMachado/T2-Redes/util"
	"github.com/activecm/mgosec"
	"github.com/blang/semver"
)

type (
	//RunningCfg holds configuration options that are parsed at run time
	RunningCfg struct {
		MongoDB   MongoDBRunningCfg
		Filtering FilteringRunningCfg
		Version   semver.Version
	}

	//MongoDBRunningCfg holds parsed information for connecting to MongoDB
	MongoDBRunningCfg struct {
		AuthMechanismParsed mgosec.AuthMechanism
		SocketTimeout       time.Duration
		TLS                 struct {
			TLSConfig *tls.Config
		}
	}

	//FilteringRunningCfg holds parsed subnet lists used to filter packet records
	FilteringRunningCfg struct {
		AlwaysIncluded []*net.IPNet
		NeverIncluded  []*net.IPNet
	}
)

// initRunningConfig uses data in the static config initialize
// the passed in running config
func initRunningConfig(static *StaticCfg, config *RunningCfg) error {
	var err error

	//parse the tls configuration
	if static.MongoDB.TLS.Enabled {
		tlsConf := &tls.Config{}
		if !static.MongoDB.TLS.VerifyCertificate {
			tlsConf.InsecureSkipVerify = true
		}
		if len(static.MongoDB.TLS.CAFile) > 0 {
			pem, err := os.ReadFile(static.MongoDB.TLS.CAFile)
			if err != nil {
				return fmt.Errorf("could not read MongoDB CA file: %w", err)
			}
			tlsConf.RootCAs = x509.NewCertPool()
			tlsConf.RootCAs.AppendCertsFromPEM(pem)
		}
		config.MongoDB.TLS.TLSConfig = tlsConf
	}

	//parse out the mongo authentication mechanism
	config.MongoDB.AuthMechanismParsed = mgosec.None
	if static.MongoDB.AuthMechanism != "" {
		authMechanism, err := mgosec.ParseAuthMechanism(
			static.MongoDB.AuthMechanism,
		)
		if err != nil {
			return fmt.Errorf("could not parse MongoDB authentication mechanism: %w", err)
		}
		config.MongoDB.AuthMechanismParsed = authMechanism
	}

	// the socket time out is configured in hours
	config.MongoDB.SocketTimeout = time.Duration(static.MongoDB.SocketTimeout) * time.Hour

	config.Filtering.AlwaysIncluded, err = util.ParseSubnets(static.Filtering.AlwaysInclude)
	if err != nil {
		return fmt.Errorf("could not parse Filtering.AlwaysInclude: %w", err)
	}

	config.Filtering.NeverIncluded, err = util.ParseSubnets(static.Filtering.NeverInclude)
	if err != nil {
		return fmt.Errorf("could not parse Filtering.NeverInclude: %w", err)
	}

	// an unparsable (e.g. "undefined") development version is not fatal
	if version, err := semver.ParseTolerant(static.Version); err == nil {
		config.Version = version
	}
	return nil
}

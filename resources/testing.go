package resources

import (
	"testing"

	"github.com/DaviCMachado/T2-Redes/config"
)

// InitTestResources creates a resource bundle from the hard coded testing
// config. No database connection is made.
func InitTestResources(t *testing.T) *Resources {
	conf, err := config.LoadTestingConfig()
	if err != nil {
		t.Fatal(err)
	}

	return &Resources{
		Config: conf,
		Log:    initLogger(&conf.S.Log),
	}
}

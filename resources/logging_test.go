package resources

import (
	"os"
	"path"
	"testing"

	"github.com/DaviCMachado/T2-Redes/config"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerLevels(t *testing.T) {
	testCases := []struct {
		level int
		out   log.Level
		msg   string
	}{
		{3, log.DebugLevel, "debug"},
		{2, log.InfoLevel, "info"},
		{1, log.WarnLevel, "warn"},
		{0, log.ErrorLevel, "error"},
		{7, log.ErrorLevel, "unknown levels fall back to error"},
	}

	for _, testCase := range testCases {
		logger := initLogger(&config.LogStaticCfg{LogLevel: testCase.level})
		assert.Equal(t, testCase.out, logger.Level, testCase.msg)
	}
}

func TestAddFileLogger(t *testing.T) {
	logPath := path.Join(t.TempDir(), "logs")
	logger := initLogger(&config.LogStaticCfg{LogLevel: 2})

	require.Nil(t, addFileLogger(logger, logPath, 1, 24))
	logger.WithFields(log.Fields{"records": 3}).Info("imported")

	contents, err := os.ReadFile(path.Join(logPath, "info.log"))
	require.Nil(t, err)
	assert.Contains(t, string(contents), "imported")
	assert.Contains(t, string(contents), "records=3")
}

func TestInitTestResources(t *testing.T) {
	res := InitTestResources(t)
	assert.False(t, res.HasDB())
	assert.Equal(t, log.DebugLevel, res.Log.Level)
	res.Close()
}

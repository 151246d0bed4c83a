package resources

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/globalsign/mgo"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"

	"github.com/activecm/mgorus"
	"github.com/rifflock/lfshook"
)

// initLogger creates the logger. Nothing is written until a hook is added.
func initLogger(logConfig *config.LogStaticCfg) *log.Logger {
	var logs = &log.Logger{}

	logs.Formatter = new(log.TextFormatter)

	logs.Out = io.Discard
	logs.Hooks = make(log.LevelHooks)

	switch logConfig.LogLevel {
	case 3:
		logs.Level = log.DebugLevel
	case 2:
		logs.Level = log.InfoLevel
	case 1:
		logs.Level = log.WarnLevel
	default:
		logs.Level = log.ErrorLevel
	}
	return logs
}

// addFileLogger writes every level to its own file under logPath. Files
// rotate every rotationHours and are removed after maxAgeHours.
func addFileLogger(logger *log.Logger, logPath string, rotationHours int, maxAgeHours int) error {
	if rotationHours <= 0 {
		rotationHours = 1
	}
	if maxAgeHours < rotationHours {
		maxAgeHours = rotationHours
	}

	if _, err := os.Stat(logPath); err != nil && os.IsNotExist(err) {
		if err = os.MkdirAll(logPath, 0755); err != nil {
			return err
		}
	}

	writers := lfshook.WriterMap{}
	levels := map[log.Level]string{
		log.DebugLevel: "debug.log",
		log.InfoLevel:  "info.log",
		log.WarnLevel:  "warn.log",
		log.ErrorLevel: "error.log",
		log.FatalLevel: "fatal.log",
		log.PanicLevel: "panic.log",
	}
	for level, name := range levels {
		logFile := path.Join(logPath, name)
		writer, err := rotatelogs.New(
			logFile+".%Y%m%d%H%M",
			rotatelogs.WithLinkName(logFile),
			rotatelogs.WithMaxAge(time.Duration(maxAgeHours)*time.Hour),
			rotatelogs.WithRotationTime(time.Duration(rotationHours)*time.Hour),
		)
		if err != nil {
			return err
		}
		writers[level] = writer
	}

	logger.Hooks.Add(lfshook.NewHook(writers, &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}))
	return nil
}

// addMongoLogger sends log entries to a MongoDB collection
func addMongoLogger(logger *log.Logger, ssn *mgo.Session, database string, collection string) error {
	err := ssn.DB(database).C(collection).Create(&mgo.CollectionInfo{})

	if err != nil {
		//check if create failed because collection already exists
		//https://github.com/mongodb/mongo/blob/master/src/mongo/base/error_codes.err
		queryErr, ok := err.(*mgo.QueryError)
		if !ok || queryErr.Code != 48 {
			return err
		}
	}
	logger.Hooks.Add(
		mgorus.NewHookerFromSession(
			ssn, database, collection,
		),
	)
	return nil
}

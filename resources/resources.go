package resources

import (
	"fmt"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/DaviCMachado/T2-Redes/database"
	log "github.com/sirupsen/logrus"
)

type (
	// Resources provides a data structure for passing system Resources
	Resources struct {
		Config *config.Config
		Log    *log.Logger
		// DB and MetaDB are nil when no MongoDB connection is configured
		DB     *database.DB
		MetaDB *database.MetaDB
	}
)

// InitResources loads the configuration, starts logging and connects to
// MongoDB when a connection string is configured
func InitResources(userConfig string) (*Resources, error) {
	conf, err := config.LoadConfig(userConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Fire up the logging system
	logger := initLogger(&conf.S.Log)
	if conf.S.Log.LogToFile {
		err = addFileLogger(logger, conf.S.Log.LogPath, conf.S.Log.RotationHours, conf.S.Log.MaxAgeHours)
		if err != nil {
			return nil, fmt.Errorf("failed to start file logging: %w", err)
		}
	}

	res := &Resources{
		Config: conf,
		Log:    logger,
	}

	if conf.S.MongoDB.ConnectionString == "" {
		logger.Debug("No MongoDB connection configured, results will only be written to disk")
		return res, nil
	}

	// Allows code to interact with the database
	res.DB, err = database.NewDB(conf, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Keeps track of analysis runs
	res.MetaDB, err = database.NewMetaDB(conf, res.DB.Session, logger)
	if err != nil {
		res.DB.Close()
		return nil, fmt.Errorf("failed to prepare run records: %w", err)
	}

	//Begin logging to the database
	if conf.S.Log.LogToDB {
		err = addMongoLogger(logger, res.DB.Session, conf.S.MongoDB.Database, conf.T.Log.LogTable)
		if err != nil {
			res.DB.Close()
			return nil, fmt.Errorf("failed to start database logging: %w", err)
		}
	}

	return res, nil
}

// HasDB reports whether results can be persisted to MongoDB
func (r *Resources) HasDB() bool {
	return r.DB != nil && r.MetaDB != nil
}

// Close releases the database session, if any
func (r *Resources) Close() {
	if r.DB != nil {
		r.DB.Close()
	}
}

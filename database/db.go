package database

import (
	"fmt"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/activecm/mgosec"
	"github.com/blang/semver"
	"github.com/globalsign/mgo"
	log "github.com/sirupsen/logrus"
)

//MinMongoDBVersion is the lower, inclusive bound on the
//versions of MongoDB compatible with flowstat
var MinMongoDBVersion = semver.Version{
	Major: 4,
	Minor: 2,
	Patch: 0,
}

//MaxMongoDBVersion is the upper, exclusive bound on the
//versions of MongoDB compatible with flowstat. Later servers dropped the
//legacy wire protocol mgo speaks.
var MaxMongoDBVersion = semver.Version{
	Major: 5,
	Minor: 1,
	Patch: 0,
}

// DB wraps the MongoDB session every run is persisted through
type DB struct {
	Session  *mgo.Session
	log      *log.Logger
	selected string
}

//NewDB connects to MongoDB and selects the configured database
func NewDB(conf *config.Config, log *log.Logger) (*DB, error) {
	session, err := connectToMongoDB(conf)
	if err != nil {
		return nil, err
	}
	session.SetSocketTimeout(conf.R.MongoDB.SocketTimeout)
	session.SetSyncTimeout(conf.R.MongoDB.SocketTimeout)
	session.SetCursorTimeout(0)

	return &DB{
		Session:  session,
		log:      log,
		selected: conf.S.MongoDB.Database,
	}, nil
}

//connectToMongoDB connects to MongoDB possibly with authentication and TLS
func connectToMongoDB(conf *config.Config) (*mgo.Session, error) {
	connString := conf.S.MongoDB.ConnectionString
	authMechanism := conf.R.MongoDB.AuthMechanismParsed
	tlsConfig := conf.R.MongoDB.TLS.TLSConfig

	var sess *mgo.Session
	var err error
	if conf.S.MongoDB.TLS.Enabled {
		sess, err = mgosec.Dial(connString, authMechanism, tlsConfig)
	} else {
		sess, err = mgosec.DialInsecure(connString, authMechanism)
	}
	if err != nil {
		return nil, err
	}

	buildInfo, err := sess.BuildInfo()
	if err != nil {
		sess.Close()
		return nil, err
	}

	if err := checkMongoDBVersion(buildInfo.Version); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// checkMongoDBVersion rejects servers outside [MinMongoDBVersion, MaxMongoDBVersion)
func checkMongoDBVersion(version string) error {
	semVersion, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Errorf("could not parse MongoDB version %q: %w", version, err)
	}

	if !(semVersion.GE(MinMongoDBVersion) && semVersion.LT(MaxMongoDBVersion)) {
		return fmt.Errorf(
			"unsupported version of MongoDB. %s not within [%s, %s)",
			semVersion.String(),
			MinMongoDBVersion.String(),
			MaxMongoDBVersion.String(),
		)
	}
	return nil
}

//SelectDB selects a database for storing results
func (d *DB) SelectDB(db string) {
	d.selected = db
}

//GetSelectedDB retrieves the database results are written to
func (d *DB) GetSelectedDB() string {
	return d.selected
}

//CollectionExists returns true if collection exists in the currently
//selected database
func (d *DB) CollectionExists(table string) bool {
	ssn := d.Session.Copy()
	defer ssn.Close()
	coll, err := ssn.DB(d.selected).CollectionNames()
	if err != nil {
		d.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Error("Failed collection name lookup")
		return false
	}
	for _, name := range coll {
		if name == table {
			return true
		}
	}
	return false
}

//EnsureCollection creates a collection in the selected database if it is
//missing and builds the given indexes
func (d *DB) EnsureCollection(name string, indexes []mgo.Index) error {
	session := d.Session.Copy()
	defer session.Close()

	collection := session.DB(d.selected).C(name)
	if !d.CollectionExists(name) {
		d.log.Debug("Building collection: ", name)
		err := collection.Create(&mgo.CollectionInfo{})
		if err != nil {
			return err
		}
	}

	for _, index := range indexes {
		if err := collection.EnsureIndex(index); err != nil {
			return err
		}
	}
	return nil
}

//Close ends the MongoDB session
func (d *DB) Close() {
	d.Session.Close()
}

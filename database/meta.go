package database

import (
	"errors"
	"sync"
	"time"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Run states recorded in the runs collection
const (
	RunStarted  = "started"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// ErrRunNotFound is returned when no run matches the requested id
var ErrRunNotFound = errors.New("run not found")

type (
	// MetaDB exports control for the runs collection
	MetaDB struct {
		lock     *sync.Mutex    // Read and write lock
		config   *config.Config // configuration info
		dbHandle *mgo.Session   // Database handle
		log      *log.Logger    // Logging object
	}

	// RunCounts summarizes how the input of a run was consumed
	RunCounts struct {
		Files            int `bson:"files"`
		Rows             int `bson:"rows"`
		Malformed        int `bson:"malformed"`
		InvalidTimestamp int `bson:"invalid_timestamp"`
		Filtered         int `bson:"filtered"`
		Records          int `bson:"records"`
		Connections      int `bson:"connections"`
	}

	// RunInfo defines some information about an analysis run
	RunInfo struct {
		ID       string    `bson:"_id"`
		Started  time.Time `bson:"started"`
		Finished time.Time `bson:"finished,omitempty"`
		Inputs   []string  `bson:"inputs"`
		Protocol string    `bson:"protocol"`
		Version  string    `bson:"version"`
		Status   string    `bson:"status"`
		Error    string    `bson:"error,omitempty"`
		Counts   RunCounts `bson:"counts"`
	}
)

// NewMetaDB instantiates a new handle for the run records and makes sure
// the runs collection is indexed
func NewMetaDB(config *config.Config, dbHandle *mgo.Session, log *log.Logger) (*MetaDB, error) {
	metaDB := &MetaDB{
		lock:     new(sync.Mutex),
		config:   config,
		dbHandle: dbHandle,
		log:      log,
	}

	ssn := dbHandle.Copy()
	defer ssn.Close()

	if err := metaDB.ensureRunIndex(ssn); err != nil {
		return nil, err
	}
	return metaDB, nil
}

// ensureRunIndex indexes the runs collection of the configured database.
// mgo remembers which indexes it ensured so repeated calls are cheap.
func (m *MetaDB) ensureRunIndex(ssn *mgo.Session) error {
	return m.runs(ssn).EnsureIndex(mgo.Index{
		Key: []string{"-started"},
	})
}

// newRunInfo builds the record of a run which is about to start
func newRunInfo(inputs []string, protocol, version string, now time.Time) RunInfo {
	return RunInfo{
		ID:       uuid.New().String(),
		Started:  now.UTC(),
		Inputs:   append([]string{}, inputs...),
		Protocol: protocol,
		Version:  version,
		Status:   RunStarted,
	}
}

func (m *MetaDB) runs(ssn *mgo.Session) *mgo.Collection {
	return ssn.DB(m.config.S.MongoDB.Database).C(m.config.T.Meta.RunsTable)
}

// StartRun records a new run and returns its id
func (m *MetaDB) StartRun(inputs []string, protocol string) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	ssn := m.dbHandle.Copy()
	defer ssn.Close()

	if err := m.ensureRunIndex(ssn); err != nil {
		return "", err
	}

	run := newRunInfo(inputs, protocol, m.config.S.Version, time.Now())
	err := m.runs(ssn).Insert(run)
	if err != nil {
		m.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Error("failed to create new run document")
		return "", err
	}
	return run.ID, nil
}

// FinishRun marks a run as complete and stores its counts
func (m *MetaDB) FinishRun(id string, counts RunCounts) error {
	return m.updateRun(id, bson.M{
		"status":   RunFinished,
		"finished": time.Now().UTC(),
		"counts":   counts,
	})
}

// FailRun marks a run as failed with the error which stopped it
func (m *MetaDB) FailRun(id string, cause error) error {
	update := bson.M{
		"status":   RunFailed,
		"finished": time.Now().UTC(),
	}
	if cause != nil {
		update["error"] = cause.Error()
	}
	return m.updateRun(id, update)
}

func (m *MetaDB) updateRun(id string, fields bson.M) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	ssn := m.dbHandle.Copy()
	defer ssn.Close()

	err := m.runs(ssn).UpdateId(id, bson.M{"$set": fields})
	if err == mgo.ErrNotFound {
		return ErrRunNotFound
	}
	if err != nil {
		m.log.WithFields(log.Fields{
			"run":   id,
			"error": err.Error(),
		}).Error("could not update run entry in meta")
	}
	return err
}

// GetRun returns the record of a single run
func (m *MetaDB) GetRun(id string) (RunInfo, error) {
	ssn := m.dbHandle.Copy()
	defer ssn.Close()

	var run RunInfo
	err := m.runs(ssn).FindId(id).One(&run)
	if err == mgo.ErrNotFound {
		return run, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (m *MetaDB) ListRuns(limit int) ([]RunInfo, error) {
	ssn := m.dbHandle.Copy()
	defer ssn.Close()

	query := m.runs(ssn).Find(nil).Sort("-started")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []RunInfo
	err := query.All(&runs)
	if err != nil {
		m.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Error("could not list runs")
		return nil, err
	}
	return runs, nil
}

package database

import (
	"sync"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	log "github.com/sirupsen/logrus"
)

type (
	// BulkChange represents an mgo upsert, update, or removal
	BulkChange struct {
		Selector  interface{} // The selector document
		Update    interface{} // The update document if updating the document
		Upsert    bool        // Whether to insert in case the document isn't found
		Remove    bool        // Whether to remove the document found rather than updating
		SelectAll bool        // Whether to use RemoveAll/ UpdateAll
	}

	// BulkChanges maps collection names to the changes applied to each one
	BulkChanges map[string][]BulkChange

	// MgoBulkWriter is a pipeline worker which batches bulk updates for MongoDB
	MgoBulkWriter struct {
		db           *DB
		log          *log.Logger
		writeChannel chan BulkChanges
		writeWg      *sync.WaitGroup
		writerName   string // used in error reporting
		unordered    bool   // unordered bulks may be applied in parallel by MongoDB
		maxBulkCount int    // max number of changes in each bulk
		maxBulkSize  int    // max total BSON size of each bulk
		errLock      *sync.Mutex
		errCount     int
	}

	// bulkBuffer tracks one pending bulk operation
	bulkBuffer struct {
		bulk   *mgo.Bulk
		length int
		size   int
	}
)

// Size serializes the change to BSON using the provided buffer and returns
// the approximate size of the change on the wire
func (m BulkChange) Size(buffer []byte) ([]byte, int) {
	size := 0
	buffer = buffer[:0]

	for _, doc := range []interface{}{m.Selector, m.Update} {
		if doc == nil {
			continue
		}
		buffer, _ = bson.MarshalBuffer(doc, buffer)
		size += len(buffer)
		buffer = buffer[:0]
	}
	return buffer, size
}

// Apply adds the change described to a bulk buffer
func (m BulkChange) Apply(bulk *mgo.Bulk) {
	if m.Selector == nil {
		return // can't describe a change without a selector
	}

	switch {
	case m.Remove && m.SelectAll:
		bulk.RemoveAll(m.Selector)
	case m.Remove:
		bulk.Remove(m.Selector)
	case m.Update != nil && m.Upsert:
		bulk.Upsert(m.Selector, m.Update)
	case m.Update != nil && m.SelectAll:
		bulk.UpdateAll(m.Selector, m.Update)
	case m.Update != nil:
		bulk.Update(m.Selector, m.Update)
	}
}

// NewBulkWriter creates a new writer object to write output data to collections
func NewBulkWriter(db *DB, log *log.Logger, unorderedWritesOK bool, writerName string) *MgoBulkWriter {
	return &MgoBulkWriter{
		db:           db,
		log:          log,
		writeChannel: make(chan BulkChanges),
		writeWg:      new(sync.WaitGroup),
		writerName:   writerName,
		unordered:    unorderedWritesOK,
		maxBulkCount: 500,
		maxBulkSize:  15 * 1000 * 1000,
		errLock:      new(sync.Mutex),
	}
}

// Collect sends a group of changes to the writer
func (w *MgoBulkWriter) Collect(data BulkChanges) {
	w.writeChannel <- data
}

// Close waits for the write threads to finish and returns the number of
// bulk operations which failed
func (w *MgoBulkWriter) Close() int {
	close(w.writeChannel)
	w.writeWg.Wait()

	w.errLock.Lock()
	defer w.errLock.Unlock()
	return w.errCount
}

// flush runs the pending bulk for a collection
func (w *MgoBulkWriter) flush(collection string, buffer *bulkBuffer) {
	if buffer.length == 0 {
		return
	}
	info, err := buffer.bulk.Run()
	if err != nil {
		w.errLock.Lock()
		w.errCount++
		w.errLock.Unlock()

		w.log.WithFields(log.Fields{
			"Module":     w.writerName,
			"Collection": collection,
			"Info":       info,
		}).Error(err)
	}
	buffer.length = 0
	buffer.size = 0
}

// Start kicks off a new write thread
func (w *MgoBulkWriter) Start() {
	w.writeWg.Add(1)
	go func() {
		defer w.writeWg.Done()
		ssn := w.db.Session.Copy()
		defer ssn.Close()

		buffers := map[string]*bulkBuffer{}
		var sizeBuffer []byte
		var changeSize int

		newBulk := func(collection string) *mgo.Bulk {
			bulk := ssn.DB(w.db.GetSelectedDB()).C(collection).Bulk()
			if w.unordered {
				bulk.Unordered()
			}
			return bulk
		}

		for data := range w.writeChannel {
			for collection, changes := range data {
				buffer, ok := buffers[collection]
				if !ok {
					buffer = &bulkBuffer{bulk: newBulk(collection)}
					buffers[collection] = buffer
				}

				for _, change := range changes {
					sizeBuffer, changeSize = change.Size(sizeBuffer)

					if buffer.length >= w.maxBulkCount || buffer.size+changeSize >= w.maxBulkSize {
						w.flush(collection, buffer)
						// a bulk which has run may not be reused
						buffer.bulk = newBulk(collection)
					}

					change.Apply(buffer.bulk)
					buffer.length++
					buffer.size += changeSize
				}
			}
		}

		for collection, buffer := range buffers {
			w.flush(collection, buffer)
		}
	}()
}

package invoice

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName = "invoices"
	recordsKey = "records"
)

// DB defines the interface for record persistence. The whole record set is
// stored as one snapshot under a single key and rewritten on every change.
type DB interface {
	// ReplaceRecords overwrites the persisted snapshot with the given set
	ReplaceRecords(records []*InvoiceRecord) error

	// ListRecords returns the persisted record set
	ListRecords() ([]*InvoiceRecord, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// ReplaceRecords overwrites the persisted snapshot with the given set
func (b *BoltDB) ReplaceRecords(records []*InvoiceRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshaling records: %w", err)
		}
		return bucket.Put([]byte(recordsKey), data)
	})
}

// ListRecords returns the persisted record set
func (b *BoltDB) ListRecords() ([]*InvoiceRecord, error) {
	records := make([]*InvoiceRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get([]byte(recordsKey))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("unmarshaling records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

package qc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/invoice-qc/internal/report"
)

const reportsBucket = "reports"

// ErrNotFound is returned when a report or one of its files does not exist
var ErrNotFound = errors.New("not found")

// DB defines the interface for report archive operations
type DB interface {
	// SaveReport stores a report under its ID, replacing any previous version
	SaveReport(r *report.Report) error

	// GetReport retrieves a report by ID
	GetReport(id string) (*report.Report, error)

	// ListReports returns all reports, newest first
	ListReports() ([]*report.Report, error)

	// DeleteReport removes a report
	DeleteReport(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens or creates the archive at path
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(reportsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) SaveReport(r *report.Report) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		return tx.Bucket([]byte(reportsBucket)).Put([]byte(r.ID), data)
	})
}

func (b *BoltDB) GetReport(id string) (*report.Report, error) {
	var r *report.Report
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(reportsBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("report %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *BoltDB) ListReports() ([]*report.Report, error) {
	reports := make([]*report.Report, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(reportsBucket)).ForEach(func(k, v []byte) error {
			var r report.Report
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshaling report %s: %w", k, err)
			}
			reports = append(reports, &r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// DeleteReport removes a report; deleting a missing report returns ErrNotFound
func (b *BoltDB) DeleteReport(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(reportsBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("report %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

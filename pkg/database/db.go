package database

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	bucketPackages = "packages"
	bucketFiles    = "files"
	bucketMeta     = "meta"

	keyGeneration = "generation"
)

// ErrBusy is returned when another process holds the database open.
var ErrBusy = errors.New("package database is locked by another process")

// DB is the authoritative store of installed packages and owned files.
// It is read during resolution and planning; only a transaction commit
// mutates it.
type DB struct {
	db *bbolt.DB
}

// Open opens or creates the local package database. It fails fast with
// ErrBusy if another process holds the file lock.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		if errors.Is(err, berrors.ErrTimeout) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("failed to open package database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketPackages, bucketFiles, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Get retrieves an installed package by name, or nil if not installed.
func (d *DB) Get(name string) (*PackageRecord, error) {
	var rec *PackageRecord

	err := d.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketPackages)).Get([]byte(name))
		if data == nil {
			return nil
		}

		rec = &PackageRecord{}
		return json.Unmarshal(data, rec)
	})

	return rec, err
}

// All returns every installed package record.
func (d *DB) All() ([]*PackageRecord, error) {
	var records []*PackageRecord

	err := d.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketPackages)).ForEach(func(_, data []byte) error {
			var rec PackageRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("malformed database entry: %w", err)
			}
			records = append(records, &rec)
			return nil
		})
	})

	return records, err
}

// Owner returns the name of the package owning path, or "" if unowned.
// Directory entries are shareable and never recorded as owned.
func (d *DB) Owner(path string) (string, error) {
	var owner string

	err := d.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket([]byte(bucketFiles)).Get([]byte(path)); data != nil {
			owner = string(data)
		}
		return nil
	})

	return owner, err
}

// Generation returns the monotonically increasing commit counter. Plans
// record the generation they were computed against so recovery can tell
// whether the database update already happened.
func (d *DB) Generation() (uint64, error) {
	var gen uint64

	err := d.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket([]byte(bucketMeta)).Get([]byte(keyGeneration)); len(data) == 8 {
			gen = binary.BigEndian.Uint64(data)
		}
		return nil
	})

	return gen, err
}

// ChangeSet is the database mutation a committed transaction applies:
// records to store (installs and replacement targets) and package names to
// drop (removals and replaced packages).
type ChangeSet struct {
	Install []*PackageRecord `json:"install,omitempty"`
	Remove  []string         `json:"remove,omitempty"`
}

// Apply commits the change set in a single atomic database transaction:
// removed packages and their file ownership go away, installed records and
// their file ownership are written, and the generation advances. It returns
// the new generation.
func (d *DB) Apply(change ChangeSet) (uint64, error) {
	var gen uint64

	err := d.db.Update(func(tx *bbolt.Tx) error {
		packages := tx.Bucket([]byte(bucketPackages))
		files := tx.Bucket([]byte(bucketFiles))
		meta := tx.Bucket([]byte(bucketMeta))

		for _, name := range change.Remove {
			data := packages.Get([]byte(name))
			if data == nil {
				continue
			}
			var old PackageRecord
			if err := json.Unmarshal(data, &old); err != nil {
				return fmt.Errorf("malformed database entry for %s: %w", name, err)
			}
			for _, f := range old.Files {
				if f.IsDir() {
					continue
				}
				if string(files.Get([]byte(f.Path))) == name {
					if err := files.Delete([]byte(f.Path)); err != nil {
						return err
					}
				}
			}
			if err := packages.Delete([]byte(name)); err != nil {
				return err
			}
		}

		for _, rec := range change.Install {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal %s: %w", rec.Name, err)
			}
			if err := packages.Put([]byte(rec.Name), data); err != nil {
				return err
			}
			for _, f := range rec.Files {
				if f.IsDir() {
					continue
				}
				if err := files.Put([]byte(f.Path), []byte(rec.Name)); err != nil {
					return err
				}
			}
		}

		if data := meta.Get([]byte(keyGeneration)); len(data) == 8 {
			gen = binary.BigEndian.Uint64(data)
		}
		gen++

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, gen)
		return meta.Put([]byte(keyGeneration), buf)
	})

	if err != nil {
		return 0, err
	}
	return gen, nil
}

package bdb

import (
	"time"

	"github.com/czh0526/cryptoconditions/conditiondb"
	"github.com/czh0526/cryptoconditions/internal/cfgutil"
	"go.etcd.io/bbolt"
)

type db bbolt.DB

var _ conditiondb.DB = (*db)(nil)

func (db *db) beginTx(writable bool) (*transaction, error) {
	boltTx, err := (*bbolt.DB)(db).Begin(writable)
	if err != nil {
		return nil, convertErr(err)
	}
	return &transaction{boltTx: boltTx}, nil
}

func (db *db) BeginReadTx() (conditiondb.ReadTx, error) {
	return db.beginTx(false)
}

func (db *db) BeginReadWriteTx() (conditiondb.ReadWriteTx, error) {
	return db.beginTx(true)
}

func (db *db) Close() error {
	return convertErr((*bbolt.DB)(db).Close())
}

func (db *db) View(f func(tx conditiondb.ReadTx) error, reset func()) error {
	reset()

	tx, err := db.BeginReadTx()
	if err != nil {
		return err
	}

	err = f(tx)
	rollbackErr := tx.Rollback()
	if err != nil {
		return err
	}
	return rollbackErr
}

func (db *db) Update(f func(tx conditiondb.ReadWriteTx) error, reset func()) error {
	reset()

	tx, err := db.BeginReadWriteTx()
	if err != nil {
		return err
	}

	if err := f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func openDB(dbPath string, noFreelistSync bool, create bool,
	timeout time.Duration) (conditiondb.DB, error) {

	if !create {
		exists, err := cfgutil.FileExists(dbPath)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, conditiondb.ErrDbDoesNotExist
		}
	}

	options := &bbolt.Options{
		NoFreelistSync: noFreelistSync,
		FreelistType:   bbolt.FreelistMapType,
		Timeout:        timeout,
	}

	boltDB, err := bbolt.Open(dbPath, 0600, options)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*db)(boltDB), nil
}

func convertErr(err error) error {
	switch err {
	// Database open/create errors.
	case bbolt.ErrDatabaseNotOpen:
		return conditiondb.ErrDbNotOpen
	case bbolt.ErrInvalid:
		return conditiondb.ErrInvalid
	case bbolt.ErrTimeout:
		return conditiondb.ErrTimeout

	// Transaction errors.
	case bbolt.ErrTxNotWritable:
		return conditiondb.ErrTxNotWritable
	case bbolt.ErrTxClosed:
		return conditiondb.ErrTxClosed

	// Value/bucket errors.
	case bbolt.ErrBucketNotFound:
		return conditiondb.ErrBucketNotFound
	case bbolt.ErrBucketExists:
		return conditiondb.ErrBucketExists
	case bbolt.ErrBucketNameRequired:
		return conditiondb.ErrBucketNameRequired
	case bbolt.ErrKeyRequired:
		return conditiondb.ErrKeyRequired
	case bbolt.ErrKeyTooLarge:
		return conditiondb.ErrKeyTooLarge
	case bbolt.ErrValueTooLarge:
		return conditiondb.ErrValueTooLarge
	case bbolt.ErrIncompatibleValue:
		return conditiondb.ErrIncompatibleValue
	}

	return err
}

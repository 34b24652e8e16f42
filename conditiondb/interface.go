// Package conditiondb is the storage abstraction used to persist decoded
// conditions. Backends register a Driver and are selected by name.
package conditiondb

import (
	"sort"
)

type Driver struct {
	DBType string
	Create func(args ...interface{}) (DB, error)
	Open   func(args ...interface{}) (DB, error)
}

type DB interface {
	BeginReadTx() (ReadTx, error)
	BeginReadWriteTx() (ReadWriteTx, error)
	Close() error

	// View runs f in a read-only transaction. reset is called before f
	// and may be used to clear state a previous attempt left behind.
	View(f func(tx ReadTx) error, reset func()) error

	// Update runs f in a read-write transaction that is committed when f
	// returns nil and rolled back otherwise.
	Update(f func(tx ReadWriteTx) error, reset func()) error
}

type ReadTx interface {
	ReadBucket(key []byte) ReadBucket
	ForEachBucket(func(key []byte) error) error
	Rollback() error

	// ID identifies the snapshot the transaction reads. A read-only
	// transaction carries the ID of the last committed read-write
	// transaction, a read-write transaction the ID it will commit as.
	ID() int
	Writable() bool
}

type ReadWriteTx interface {
	ReadTx

	ReadWriteBucket(key []byte) ReadWriteBucket
	CreateTopLevelBucket(key []byte) (ReadWriteBucket, error)
	DeleteTopLevelBucket(key []byte) error

	Commit() error
	OnCommit(func())
}

type ReadBucket interface {
	Tx() ReadTx
	NestedReadBucket(key []byte) ReadBucket
	ForEach(func(k, v []byte) error) error

	// Get returns nil when key is absent. The returned slice is only
	// valid for the life of the transaction.
	Get(key []byte) []byte
}

type ReadWriteBucket interface {
	ReadBucket

	ReadWriteTx() ReadWriteTx

	NestedReadWriteBucket(key []byte) ReadWriteBucket
	CreateBucket(key []byte) (ReadWriteBucket, error)
	CreateBucketIfNotExists(key []byte) (ReadWriteBucket, error)
	DeleteNestedBucket(key []byte) error
	Put(key, value []byte) error
	Delete(key []byte) error
}

func Create(dbType string, args ...interface{}) (DB, error) {
	drv, exists := drivers[dbType]
	if !exists {
		return nil, ErrDbUnknownType
	}

	return drv.Create(args...)
}

func Open(dbType string, args ...interface{}) (DB, error) {
	drv, exists := drivers[dbType]
	if !exists {
		return nil, ErrDbUnknownType
	}

	return drv.Open(args...)
}

func View(db DB, f func(tx ReadTx) error) error {
	return db.View(f, func() {})
}

func Update(db DB, f func(tx ReadWriteTx) error) error {
	return db.Update(f, func() {})
}

var drivers = make(map[string]*Driver)

func RegisterDriver(driver Driver) error {
	if _, exists := drivers[driver.DBType]; exists {
		return ErrDbTypeRegistered
	}

	drivers[driver.DBType] = &driver
	return nil
}

// SupportedDrivers returns the registered database types in sorted order.
func SupportedDrivers() []string {
	types := make([]string, 0, len(drivers))
	for t := range drivers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

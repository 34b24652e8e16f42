package bdb

import (
	"github.com/czh0526/cryptoconditions/conditiondb"
	"go.etcd.io/bbolt"
)

type transaction struct {
	boltTx *bbolt.Tx
}

var _ conditiondb.ReadWriteTx = (*transaction)(nil)

func (tx *transaction) ReadBucket(key []byte) conditiondb.ReadBucket {
	b := tx.ReadWriteBucket(key)
	if b == nil {
		return nil
	}
	return b
}

func (tx *transaction) ReadWriteBucket(key []byte) conditiondb.ReadWriteBucket {
	boltBucket := tx.boltTx.Bucket(key)
	if boltBucket == nil {
		return nil
	}
	return (*bucket)(boltBucket)
}

func (tx *transaction) ForEachBucket(fn func(key []byte) error) error {
	return convertErr(tx.boltTx.ForEach(
		func(name []byte, _ *bbolt.Bucket) error {
			return fn(name)
		}),
	)
}

func (tx *transaction) CreateTopLevelBucket(key []byte) (conditiondb.ReadWriteBucket, error) {
	boltBucket, err := tx.boltTx.CreateBucketIfNotExists(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*bucket)(boltBucket), nil
}

func (tx *transaction) DeleteTopLevelBucket(key []byte) error {
	return convertErr(tx.boltTx.DeleteBucket(key))
}

func (tx *transaction) Commit() error {
	return convertErr(tx.boltTx.Commit())
}

func (tx *transaction) Rollback() error {
	return convertErr(tx.boltTx.Rollback())
}

func (tx *transaction) OnCommit(f func()) {
	tx.boltTx.OnCommit(f)
}

func (tx *transaction) ID() int {
	return tx.boltTx.ID()
}

func (tx *transaction) Writable() bool {
	return tx.boltTx.Writable()
}

package bdb

import (
	"github.com/czh0526/cryptoconditions/conditiondb"
	"go.etcd.io/bbolt"
)

type bucket bbolt.Bucket

var _ conditiondb.ReadWriteBucket = (*bucket)(nil)

func (b *bucket) Tx() conditiondb.ReadTx {
	return b.ReadWriteTx()
}

func (b *bucket) ReadWriteTx() conditiondb.ReadWriteTx {
	return &transaction{boltTx: (*bbolt.Bucket)(b).Tx()}
}

func (b *bucket) NestedReadBucket(key []byte) conditiondb.ReadBucket {
	nested := b.NestedReadWriteBucket(key)
	if nested == nil {
		return nil
	}
	return nested
}

func (b *bucket) NestedReadWriteBucket(key []byte) conditiondb.ReadWriteBucket {
	boltBucket := (*bbolt.Bucket)(b).Bucket(key)
	if boltBucket == nil {
		return nil
	}
	return (*bucket)(boltBucket)
}

// ForEach calls f for every key in the bucket. Nested buckets are passed
// with a nil value.
func (b *bucket) ForEach(f func(k, v []byte) error) error {
	return convertErr((*bbolt.Bucket)(b).ForEach(f))
}

func (b *bucket) Get(key []byte) []byte {
	return (*bbolt.Bucket)(b).Get(key)
}

func (b *bucket) CreateBucket(key []byte) (conditiondb.ReadWriteBucket, error) {
	boltBucket, err := (*bbolt.Bucket)(b).CreateBucket(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*bucket)(boltBucket), nil
}

func (b *bucket) CreateBucketIfNotExists(key []byte) (conditiondb.ReadWriteBucket, error) {
	boltBucket, err := (*bbolt.Bucket)(b).CreateBucketIfNotExists(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*bucket)(boltBucket), nil
}

func (b *bucket) DeleteNestedBucket(key []byte) error {
	return convertErr((*bbolt.Bucket)(b).DeleteBucket(key))
}

func (b *bucket) Put(key, value []byte) error {
	return convertErr((*bbolt.Bucket)(b).Put(key, value))
}

func (b *bucket) Delete(key []byte) error {
	return convertErr((*bbolt.Bucket)(b).Delete(key))
}

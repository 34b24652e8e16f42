// Package condstore persists compact conditions in a conditiondb namespace
// bucket, keyed by condition type and wire width fingerprint.
package condstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/czh0526/cryptoconditions/conditiondb"
	"github.com/czh0526/cryptoconditions/conditions"
	"github.com/fxamacker/cbor/v2"
	"github.com/lightninglabs/neutrino/cache"
	"github.com/lightninglabs/neutrino/cache/lru"
)

// DefaultCacheSize is the number of decoded conditions kept in memory.
const DefaultCacheSize = 1000

var (
	conditionsBucketName = []byte("conditions")

	// ErrNotCreated is returned by Open when the namespace has no
	// conditions bucket.
	ErrNotCreated = errors.New("condition store not created")

	// ErrNotFound is returned when no condition is stored under the
	// requested type and fingerprint.
	ErrNotFound = errors.New("condition not found")
)

// record is the value stored for each condition.
type record struct {
	_     struct{} `cbor:",toarray"`
	Raw   []byte
	Added int64
}

// StoredCondition is a condition read back from the store.
type StoredCondition struct {
	*conditions.Anon

	// Raw is the DER encoding the condition was stored from.
	Raw []byte

	Added time.Time
}

type cachedCondition struct {
	cond conditions.Anon
}

func (c *cachedCondition) Size() (uint64, error) {
	return 1, nil
}

var _ cache.Value = (*cachedCondition)(nil)

// Store reads and writes compact conditions and keeps recently fetched ones
// in an lru cache.
type Store struct {
	cache *lru.Cache[string, *cachedCondition]

	// lastWrite is the ID of the latest committed transaction that
	// changed the bucket. Only snapshots at least that recent may fill
	// the cache.
	lastWrite int

	// now is replaced in tests.
	now func() time.Time

	mtx sync.RWMutex
}

// Create creates the conditions bucket inside ns.
func Create(ns conditiondb.ReadWriteBucket) error {
	if _, err := ns.CreateBucket(conditionsBucketName); err != nil {
		return fmt.Errorf("failed to create conditions bucket: %w", err)
	}
	return nil
}

// Open returns a Store over the conditions bucket of ns. cacheSize is the
// number of decoded conditions to keep in memory; zero selects
// DefaultCacheSize.
func Open(ns conditiondb.ReadBucket, cacheSize uint64) (*Store, error) {
	if ns.NestedReadBucket(conditionsBucketName) == nil {
		return nil, ErrNotCreated
	}
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}

	return &Store{
		cache: lru.NewCache[string, *cachedCondition](cacheSize),
		now:   time.Now,
	}, nil
}

func conditionKey(t conditions.ConditionType, fingerprint []byte) []byte {
	fp := conditions.ShrinkFingerprint(fingerprint, t)
	key := make([]byte, 0, 1+len(fp))
	key = append(key, byte(t))
	return append(key, fp...)
}

func readBucket(ns conditiondb.ReadBucket) (conditiondb.ReadBucket, error) {
	bucket := ns.NestedReadBucket(conditionsBucketName)
	if bucket == nil {
		return nil, ErrNotCreated
	}
	return bucket, nil
}

func writeBucket(ns conditiondb.ReadWriteBucket) (conditiondb.ReadWriteBucket, error) {
	bucket := ns.NestedReadWriteBucket(conditionsBucketName)
	if bucket == nil {
		return nil, ErrNotCreated
	}
	return bucket, nil
}

// invalidate drops key from the cache now and again once the transaction
// behind ns commits.
func (s *Store) invalidate(ns conditiondb.ReadWriteBucket, key string) {
	s.mtx.Lock()
	s.cache.Delete(key)
	s.mtx.Unlock()

	tx := ns.ReadWriteTx()
	id := tx.ID()
	tx.OnCommit(func() {
		s.mtx.Lock()
		defer s.mtx.Unlock()

		if id > s.lastWrite {
			s.lastWrite = id
		}
		s.cache.Delete(key)
	})
}

func copyAnon(c *conditions.Anon) *conditions.Anon {
	cp := *c
	cp.Fingerprint = append([]byte(nil), c.Fingerprint...)
	return &cp
}

// PutCondition decodes raw as a compact condition and stores it. Storing a
// condition that is already present replaces the earlier record.
func (s *Store) PutCondition(ns conditiondb.ReadWriteBucket,
	raw []byte) (*conditions.Anon, error) {

	cond, err := conditions.DecodeCondition(raw)
	if err != nil {
		return nil, err
	}

	bucket, err := writeBucket(ns)
	if err != nil {
		return nil, err
	}

	value, err := cbor.Marshal(&record{
		Raw:   raw,
		Added: s.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode condition record: %w", err)
	}

	key := conditionKey(cond.CondType, cond.Fingerprint)
	if err := bucket.Put(key, value); err != nil {
		return nil, fmt.Errorf("failed to store condition %x: %w", key, err)
	}

	s.invalidate(bucket, string(key))

	log.Debugf("Stored %v condition %x", cond.CondType,
		conditions.ShrinkFingerprint(cond.Fingerprint, cond.CondType))

	return cond, nil
}

func decodeRecord(value []byte) (*StoredCondition, error) {
	var rec record
	if err := cbor.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode condition record: %w", err)
	}

	cond, err := conditions.DecodeCondition(rec.Raw)
	if err != nil {
		return nil, fmt.Errorf("stored condition is invalid: %w", err)
	}

	return &StoredCondition{
		Anon:  cond,
		Raw:   rec.Raw,
		Added: time.Unix(rec.Added, 0),
	}, nil
}

// FetchCondition returns the condition stored under the type and
// fingerprint. The fingerprint may be given in wire width or padded.
//
// Read-write transactions bypass the cache so they see their own
// uncommitted changes, and never fill it.
func (s *Store) FetchCondition(ns conditiondb.ReadBucket,
	t conditions.ConditionType, fingerprint []byte) (*conditions.Anon, error) {

	key := string(conditionKey(t, fingerprint))
	tx := ns.Tx()

	if !tx.Writable() {
		s.mtx.RLock()
		cached, err := s.cache.Get(key)
		s.mtx.RUnlock()
		if err == nil {
			log.Tracef("Condition cache hit for %x", key)
			return copyAnon(&cached.cond), nil
		}
	}

	bucket, err := readBucket(ns)
	if err != nil {
		return nil, err
	}

	value := bucket.Get([]byte(key))
	if value == nil {
		return nil, fmt.Errorf("%w: %v %x", ErrNotFound, t,
			conditions.ShrinkFingerprint(fingerprint, t))
	}

	stored, err := decodeRecord(value)
	if err != nil {
		return nil, err
	}

	if !tx.Writable() {
		s.cacheCondition(tx.ID(), key, stored.Anon)
	}

	return stored.Anon, nil
}

// cacheCondition caches cond unless a write committed after the snapshot
// it was read from.
func (s *Store) cacheCondition(snapshot int, key string, cond *conditions.Anon) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if snapshot < s.lastWrite {
		log.Tracef("Not caching condition %x from stale snapshot %d",
			key, snapshot)
		return
	}

	_, err := s.cache.Put(key, &cachedCondition{cond: *copyAnon(cond)})
	if err != nil {
		log.Warnf("Unable to cache condition %x: %v", key, err)
	}
}

// ForEachCondition calls fn for every stored condition in key order. An
// error from fn stops the iteration and is returned.
func (s *Store) ForEachCondition(ns conditiondb.ReadBucket,
	fn func(*StoredCondition) error) error {

	bucket, err := readBucket(ns)
	if err != nil {
		return err
	}

	return bucket.ForEach(func(k, v []byte) error {
		stored, err := decodeRecord(v)
		if err != nil {
			return fmt.Errorf("condition %x: %w", k, err)
		}
		return fn(stored)
	})
}

// DeleteCondition removes the condition stored under the type and
// fingerprint.
func (s *Store) DeleteCondition(ns conditiondb.ReadWriteBucket,
	t conditions.ConditionType, fingerprint []byte) error {

	bucket, err := writeBucket(ns)
	if err != nil {
		return err
	}

	key := conditionKey(t, fingerprint)
	if bucket.Get(key) == nil {
		return fmt.Errorf("%w: %v %x", ErrNotFound, t,
			conditions.ShrinkFingerprint(fingerprint, t))
	}
	if err := bucket.Delete(key); err != nil {
		return fmt.Errorf("failed to delete condition %x: %w", key, err)
	}

	s.invalidate(bucket, string(key))

	log.Debugf("Deleted %v condition %x", t, key[1:])
	return nil
}

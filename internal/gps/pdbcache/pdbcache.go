// Package pdbcache adds an on-disk memoization layer in front of a PDB
// (spec §4.6's cached PDB), persisting results across process runs in a
// BoltDB file the way the teacher's source cache persists source
// metadata (source_cache_bolt.go): one bucket per namespace, View for
// reads, Update for writes.
package pdbcache

import (
	"time"

	"github.com/boltdb/bolt"

	"github.com/dcreager/buzzy-sub000/internal/gps/dependency"
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/pdb"
	"github.com/dcreager/buzzy-sub000/internal/gps/pkgmodel"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
)

// DB is a BoltDB file backing one or more namespaced on-disk PDB
// caches, one bucket per namespace.
type DB struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errs.Wrap(err, errs.SystemError, "failed to open PDB cache %q", path)
	}
	return &DB{db: db}, nil
}

// Close releases the database file.
func (d *DB) Close() error {
	return errs.Wrap(d.db.Close(), errs.SystemError, "failed to close PDB cache")
}

// Wrap decorates inner with on-disk memoization scoped to namespace
// (for example a native adapter's name, so "pacman" and "apt" results
// never collide in the same file). A dependency recorded as unresolved
// is reported unresolved without consulting inner again; inner is
// always asked for a live Package on a recorded hit, since a Package's
// install/uninstall closures can't be persisted, but skipping the
// whole pattern-matching probe on a known miss is exactly the
// expensive case a registry with several native adapters benefits
// from avoiding.
func (d *DB) Wrap(namespace string, inner pdb.PDB) pdb.PDB {
	return &cached{bucket: []byte(namespace), inner: inner, db: d.db}
}

// Forget clears every cached record in namespace, forcing the next
// Satisfy to re-probe inner.
func (d *DB) Forget(namespace string) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(namespace)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(namespace))
	})
	return errs.Wrap(err, errs.SystemError, "failed to clear PDB cache namespace %q", namespace)
}

type cached struct {
	bucket []byte
	inner  pdb.PDB
	db     *bolt.DB
}

func (c *cached) Satisfy(ctx rt.Context, dep dependency.Dependency) (*pkgmodel.Package, bool, error) {
	key := []byte(dep.String())
	if found, ok := c.lookupMiss(key); ok && !found {
		return nil, false, nil
	}

	pkg, found, err := c.inner.Satisfy(ctx, dep)
	if err != nil {
		return nil, false, err
	}
	if storeErr := c.store(key, found); storeErr != nil && ctx.Log != nil {
		ctx.Log.Debugf("pdbcache: failed to persist %q: %v", key, storeErr)
	}
	return pkg, found, nil
}

// lookupMiss reports whether key has a recorded result, and if so
// whether that result was a miss (found == false).
func (c *cached) lookupMiss(key []byte) (found bool, ok bool) {
	_ = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v == nil {
			return nil
		}
		ok = true
		found = len(v) > 0 && v[0] == 1
		return nil
	})
	return found, ok
}

func (c *cached) store(key []byte, found bool) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(c.bucket)
		if err != nil {
			return err
		}
		val := []byte{0}
		if found {
			val[0] = 1
		}
		return b.Put(key, val)
	})
}

// Package leveldb implements database.DB over goleveldb, the alternate
// BaseState backend selectable via storage.backend in configuration
// when pebble's LSM tuning isn't wanted.
package leveldb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/basinledger/settled/internal/storage/database"
)

var (
	ErrDBClosed    = errors.New("database is closed")
	ErrKeyNotFound = errors.New("key not found")
)

type DB struct {
	db *leveldb.DB
}

func NewDB(db *leveldb.DB) *DB {
	return &DB{db: db}
}

func (d *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if d.db == nil {
		return nil, ErrDBClosed
	}
	val, err := d.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (d *DB) Write(ctx context.Context, key, value []byte) error {
	if d.db == nil {
		return ErrDBClosed
	}
	return d.db.Put(key, value, nil)
}

func (d *DB) Delete(ctx context.Context, key []byte) error {
	if d.db == nil {
		return ErrDBClosed
	}
	return d.db.Delete(key, nil)
}

func (d *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if d.db == nil {
		return ErrDBClosed
	}
	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			batch.Put(op.Key, op.Value)
		case database.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	return d.db.Write(batch, nil)
}

func (d *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if d.db == nil {
		return nil, ErrDBClosed
	}
	rng := &util.Range{Start: start, Limit: end}
	return &Iterator{iter: d.db.NewIterator(rng, nil), end: end}, nil
}

type Iterator struct {
	iter    iterator.Iterator
	end     []byte
	started bool
}

func (it *Iterator) Next() bool {
	var ok bool
	if !it.started {
		it.started = true
		ok = it.iter.First()
	} else {
		ok = it.iter.Next()
	}
	if !ok {
		return false
	}
	if it.end != nil && bytes.Compare(it.iter.Key(), it.end) > 0 {
		return false
	}
	return true
}

func (it *Iterator) Key() []byte {
	key := it.iter.Key()
	out := make([]byte, len(key))
	copy(out, key)
	return out
}

func (it *Iterator) Value() []byte {
	val := it.iter.Value()
	out := make([]byte, len(val))
	copy(out, val)
	return out
}

func (it *Iterator) Error() error { return it.iter.Error() }

func (it *Iterator) Close() error {
	it.iter.Release()
	return nil
}

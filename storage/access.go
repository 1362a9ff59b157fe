// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/tokenledger/spstore/fault"
)

// Transaction - batched writes across the tables of one store
//
// reads through the transaction see its own uncommitted writes
type Transaction interface {
	Abort()
	Begin() error
	Commit(sync bool) error
	Delete(*PoolHandle, []byte)
	DumpTx() []byte
	Get(*PoolHandle, []byte) ([]byte, error)
	Has(*PoolHandle, []byte) (bool, error)
	InUse() bool
	Put(*PoolHandle, []byte, []byte)
}

// AccessData - the single batch of a store
type AccessData struct {
	sync.Mutex
	inUse bool
	store *Store
	batch *leveldb.Batch
	cache Cache
}

func newDA(store *Store, trx *leveldb.Batch, cache Cache) *AccessData {
	return &AccessData{
		inUse: false,
		store: store,
		batch: trx,
		cache: cache,
	}
}

// Begin - mark the batch as in use
func (d *AccessData) Begin() error {
	d.Lock()
	defer d.Unlock()

	if d.inUse {
		return fault.ErrTransactionInUse
	}

	d.inUse = true
	return nil
}

// Put - queue a key/value write
func (d *AccessData) Put(p *PoolHandle, key []byte, value []byte) {
	k := p.prefixKey(key)
	d.Lock()
	defer d.Unlock()

	d.cache.Set(dbPut, string(k), value)
	d.batch.Put(k, value)
}

// Delete - queue a key removal
func (d *AccessData) Delete(p *PoolHandle, key []byte) {
	k := p.prefixKey(key)
	d.Lock()
	defer d.Unlock()

	d.cache.Set(dbDelete, string(k), nil)
	d.batch.Delete(k)
}

// Commit - write the batch and release the transaction
//
// a sync commit also makes all earlier buffered writes durable
func (d *AccessData) Commit(sync bool) error {
	d.Lock()
	defer d.Unlock()

	s := d.store
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return fault.ErrDatabaseIsNotOpen
	}

	options := bufferedOptions
	if sync {
		options = syncOptions
	}
	err := s.db.Write(d.batch, options)
	if nil == err {
		s.writes.Add(uint64(d.batch.Len()))
	}

	d.batch.Reset()
	d.cache.Clear()
	d.inUse = false
	return err
}

// DumpTx - the raw batch contents
func (d *AccessData) DumpTx() []byte {
	d.Lock()
	defer d.Unlock()

	return d.batch.Dump()
}

// Get - read a value, pending writes take priority
//
// returns nil, nil if the key is not present or is pending deletion
func (d *AccessData) Get(p *PoolHandle, key []byte) ([]byte, error) {
	d.Lock()
	val, found := d.cache.Get(string(p.prefixKey(key)))
	d.Unlock()

	if found {
		return val, nil
	}
	return p.Get(key)
}

// Has - check a key, pending writes take priority
func (d *AccessData) Has(p *PoolHandle, key []byte) (bool, error) {
	d.Lock()
	val, found := d.cache.Get(string(p.prefixKey(key)))
	d.Unlock()

	if found {
		return nil != val, nil
	}
	return p.Has(key)
}

// InUse - true between Begin and Commit/Abort
func (d *AccessData) InUse() bool {
	d.Lock()
	defer d.Unlock()

	return d.inUse
}

// Abort - discard the batch
func (d *AccessData) Abort() {
	d.Lock()
	defer d.Unlock()

	d.batch.Reset()
	d.cache.Clear()
	d.inUse = false
}

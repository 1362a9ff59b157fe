// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/tokenledger/spstore/fault"
)

// PoolHandle - the handle for one table of a store
type PoolHandle struct {
	prefix byte
	limit  []byte
	store  *Store
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// Prefix - the table tag byte
func (p *PoolHandle) Prefix() byte {
	return p.prefix
}

// Put - store a key/value bytes pair, buffered
func (p *PoolHandle) Put(key []byte, value []byte) error {
	return p.put(key, value, bufferedOptions)
}

// PutSync - store a key/value bytes pair and wait for it to reach the disk
func (p *PoolHandle) PutSync(key []byte, value []byte) error {
	return p.put(key, value, syncOptions)
}

func (p *PoolHandle) put(key []byte, value []byte, options *ldb_opt.WriteOptions) error {
	s := p.store
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return fault.ErrDatabaseIsNotOpen
	}
	s.writes.Increment()
	return s.db.Put(p.prefixKey(key), value, options)
}

// Delete - remove a key from the table
func (p *PoolHandle) Delete(key []byte) error {
	s := p.store
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return fault.ErrDatabaseIsNotOpen
	}
	s.writes.Increment()
	return s.db.Delete(p.prefixKey(key), bufferedOptions)
}

// Get - read a value for a given key
//
// returns nil, nil if the key is not present
func (p *PoolHandle) Get(key []byte) ([]byte, error) {
	s := p.store
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrDatabaseIsNotOpen
	}
	s.reads.Increment()
	value, err := s.db.Get(p.prefixKey(key), readOptions)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	s := p.store
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return false, fault.ErrDatabaseIsNotOpen
	}
	s.reads.Increment()
	return s.db.Has(p.prefixKey(key), readOptions)
}

// LastElement - get the last element in a pool
func (p *PoolHandle) LastElement() (Element, bool, error) {
	maxRange := ldb_util.Range{
		Start: []byte{p.prefix}, // Start of key range, included in the range
		Limit: p.limit,          // Limit of key range, excluded from the range
	}

	s := p.store
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return Element{}, false, fault.ErrDatabaseIsNotOpen
	}

	iter := s.db.NewIterator(&maxRange, iterOptions)

	found := false
	result := Element{}
	if iter.Last() {

		// contents of the returned slice must not be modified, and are
		// only valid until the next call to Next
		key := iter.Key()
		value := iter.Value()

		dataKey := make([]byte, len(key)-1) // strip the prefix
		copy(dataKey, key[1:])              // ...

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		result.Key = dataKey
		result.Value = dataValue
		found = true
		s.reads.Increment()
	}
	iter.Release()
	return result, found, iter.Error()
}

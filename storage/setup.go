// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/tokenledger/spstore/counter"
	"github.com/tokenledger/spstore/fault"
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentDBVersion = 0x100
	maxOpenFiles     = 64
)

var (
	// point reads
	readOptions = &ldb_opt.ReadOptions{
		Strict: ldb_opt.StrictBlockChecksum,
	}

	// bulk scans are cold and must not evict hot blocks
	iterOptions = &ldb_opt.ReadOptions{
		Strict:        ldb_opt.StrictBlockChecksum,
		DontFillCache: true,
	}

	bufferedOptions = &ldb_opt.WriteOptions{Sync: false}
	syncOptions     = &ldb_opt.WriteOptions{Sync: true}
)

// Store - one LevelDB database
type Store struct {
	sync.RWMutex
	path   string
	db     *leveldb.DB
	trx    *AccessData
	reads  counter.Counter
	writes counter.Counter
}

// Open - open or create the database at path
//
// if wipe is set any existing database at path is destroyed first
func Open(path string, wipe bool) (*Store, error) {
	if wipe {
		if err := os.RemoveAll(path); nil != err {
			return nil, err
		}
	}

	db, version, err := getDB(path)
	if nil != err {
		return nil, err
	}

	// ensure no database downgrade
	if version > currentDBVersion {
		db.Close()
		return nil, fault.ErrDatabaseVersion
	}

	if 0 == version {
		// database was empty so tag as current version
		if err := putVersion(db, currentDBVersion); nil != err {
			db.Close()
			return nil, err
		}
	}

	s := &Store{
		path: path,
		db:   db,
	}
	s.trx = newDA(s, new(leveldb.Batch), newCache())
	return s, nil
}

// Close - release the database, safe to call more than once
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil
	}
	s.trx.Abort()
	err := s.db.Close()
	s.db = nil
	return err
}

// Clear - delete every entry and reset the counters
//
// the database stays open
func (s *Store) Clear() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrDatabaseIsNotOpen
	}
	s.trx.Abort()

	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(nil, iterOptions)
	for iter.Next() {
		batch.Delete(iter.Key())
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return err
	}

	if err := s.db.Write(batch, syncOptions); nil != err {
		return err
	}

	s.reads.Reset()
	s.writes.Reset()

	return putVersion(s.db, currentDBVersion)
}

// Path - file system location of the database
func (s *Store) Path() string {
	return s.path
}

// Reads - number of entries read since open or last clear
func (s *Store) Reads() uint64 {
	return s.reads.Uint64()
}

// Writes - number of entries written since open or last clear
func (s *Store) Writes() uint64 {
	return s.writes.Uint64()
}

// Pool - handle for the table with the given prefix
func (s *Store) Pool(prefix byte) *PoolHandle {
	limit := []byte(nil)
	if prefix < 255 {
		limit = []byte{prefix + 1}
	}
	return &PoolHandle{
		prefix: prefix,
		limit:  limit,
		store:  s,
	}
}

// NewTransaction - start the batch for this database
//
// only one transaction can be in progress
func (s *Store) NewTransaction() (Transaction, error) {
	err := s.trx.Begin()
	if nil != err {
		return nil, err
	}
	return s.trx, nil
}

// return:
//   database handle
//   version number
func getDB(name string) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:           false,
		ErrorIfMissing:         false,
		Strict:                 ldb_opt.DefaultStrict,
		Compression:            ldb_opt.NoCompression,
		OpenFilesCacheCapacity: maxOpenFiles,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, readOptions)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, syncOptions)
}

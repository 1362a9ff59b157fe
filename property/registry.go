// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/storage"
)

// table prefixes
const (
	watermarkPrefix = 'B'
	entryPrefix     = 's'
	txPrefix        = 't'
	blockPrefix     = 'b'
	counterPrefix   = 'n'
)

// Registry - the property database
type Registry struct {
	sync.RWMutex

	log   *logger.L
	store *storage.Store

	watermarks *storage.PoolHandle
	entries    *storage.PoolHandle
	txs        *storage.PoolHandle
	blocks     *storage.PoolHandle
	counters   *storage.PoolHandle

	nextMain uint32
	nextTest uint32

	implied map[uint32]Entry
}

// Open - open the registry database
//
// exodus is the issuer reported for the implied base tokens
func Open(path string, wipe bool, exodus string) (*Registry, error) {
	log := logger.New("registry")

	store, err := storage.Open(path, wipe)
	if nil != err {
		log.Errorf("open: %q  error: %s", path, err)
		return nil, err
	}

	r := &Registry{
		log:        log,
		store:      store,
		watermarks: store.Pool(watermarkPrefix),
		entries:    store.Pool(entryPrefix),
		txs:        store.Pool(txPrefix),
		blocks:     store.Pool(blockPrefix),
		counters:   store.Pool(counterPrefix),
		nextMain:   FirstMainID,
		nextTest:   FirstTestID,
		implied:    impliedEntries(exodus),
	}

	if err := r.loadCounters(); nil != err {
		store.Close()
		return nil, err
	}

	log.Infof("opened: %q  next main: %d  next test: %d", path, r.nextMain, r.nextTest)
	return r, nil
}

// Close - release the database
func (r *Registry) Close() error {
	r.Lock()
	defer r.Unlock()

	r.log.Info("closing")
	return r.store.Close()
}

// Store - the underlying database
func (r *Registry) Store() *storage.Store {
	return r.store
}

func idKey(id uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, id)
	return key
}

func snapshotKey(block digest.Digest, id uint32) []byte {
	return append(append(make([]byte, 0, digest.Length+4), block[:]...), idKey(id)...)
}

func (r *Registry) loadCounters() error {
	for _, eco := range []Ecosystem{Main, Test} {
		value, err := r.counters.Get([]byte{byte(eco)})
		if nil != err {
			return err
		}
		if nil == value {
			continue
		}
		if 4 != len(value) {
			return fault.ErrNotStoredRecord
		}
		r.setNext(eco, binary.BigEndian.Uint32(value))
	}
	return nil
}

func (r *Registry) next(eco Ecosystem) uint32 {
	if Test == eco {
		return r.nextTest
	}
	return r.nextMain
}

func (r *Registry) setNext(eco Ecosystem, id uint32) {
	if Test == eco {
		r.nextTest = id
	} else {
		r.nextMain = id
	}
}

// Init - seed both id counters and persist them
func (r *Registry) Init(nextMain uint32, nextTest uint32) error {
	if nextMain < FirstMainID || nextMain >= FirstTestID {
		return fault.ErrInvalidPropertyID
	}
	if nextTest < FirstTestID {
		return fault.ErrInvalidPropertyID
	}

	r.Lock()
	defer r.Unlock()

	trx, err := r.store.NewTransaction()
	if nil != err {
		return err
	}
	trx.Put(r.counters, []byte{byte(Main)}, idKey(nextMain))
	trx.Put(r.counters, []byte{byte(Test)}, idKey(nextTest))
	if err := trx.Commit(true); nil != err {
		return err
	}

	r.nextMain = nextMain
	r.nextTest = nextTest
	return nil
}

// Clear - delete every record and reset the id counters
func (r *Registry) Clear() error {
	r.Lock()
	defer r.Unlock()

	if err := r.store.Clear(); nil != err {
		return err
	}
	r.nextMain = FirstMainID
	r.nextTest = FirstTestID
	r.log.Warn("cleared")
	return nil
}

// PeekNextID - the id the next Put will assign, not consumed
func (r *Registry) PeekNextID(eco Ecosystem) (uint32, error) {
	if !eco.valid() {
		return 0, fault.ErrInvalidEcosystem
	}
	if err := entry.checkFields(); nil != err {
		return 0, err
	}

	r.RLock()
	defer r.RUnlock()

	return r.next(eco), nil
}

// Put - store a new property and return its id
//
// a zero update block is set to the creation block
func (r *Registry) Put(eco Ecosystem, entry *Entry) (uint32, error) {
	if !eco.valid() {
		return 0, fault.ErrInvalidEcosystem
	}

	r.Lock()
	defer r.Unlock()

	found, err := r.txs.Has(entry.TxID[:])
	if nil != err {
		return 0, err
	}
	if found {
		return 0, fault.ErrDuplicateTransaction
	}

	stored := *entry
	if stored.UpdateBlock.IsZero() {
		stored.UpdateBlock = stored.CreationBlock
	}

	id := r.next(eco)

	trx, err := r.store.NewTransaction()
	if nil != err {
		return 0, err
	}
	trx.Put(r.entries, idKey(id), stored.Pack())
	trx.Put(r.txs, stored.TxID[:], idKey(id))
	trx.Put(r.counters, []byte{byte(eco)}, idKey(id+1))
	if err := trx.Commit(false); nil != err {
		return 0, err
	}

	r.setNext(eco, id+1)
	r.log.Debugf("put: %d  ecosystem: %s  tx: %s  name: %q", id, eco, stored.TxID, stored.Name)
	return id, nil
}

// Update - overwrite an existing property
//
// the first change to a property within a block saves the previous
// record under that block
func (r *Registry) Update(id uint32, entry *Entry) error {
	if IsImplied(id) {
		return fault.ErrImpliedProperty
	}
	if err := entry.checkFields(); nil != err {
		return err
	}

	r.Lock()
	defer r.Unlock()

	key := idKey(id)
	packed, err := r.entries.Get(key)
	if nil != err {
		return err
	}
	if nil == packed {
		return fault.ErrPropertyNotFound
	}
	prior, err := Unpack(packed)
	if nil != err {
		return err
	}

	trx, err := r.store.NewTransaction()
	if nil != err {
		return err
	}

	if prior.UpdateBlock != entry.UpdateBlock {
		sKey := snapshotKey(entry.UpdateBlock, id)
		saved, err := trx.Has(r.blocks, sKey)
		if nil != err {
			trx.Abort()
			return err
		}
		if !saved {
			trx.Put(r.blocks, sKey, packed)
		}
	}
	trx.Put(r.entries, key, entry.Pack())

	if err := trx.Commit(false); nil != err {
		return err
	}

	r.log.Debugf("update: %d  block: %s", id, entry.UpdateBlock)
	return nil
}

// Get - read a property
func (r *Registry) Get(id uint32) (*Entry, error) {
	if e, ok := r.implied[id]; ok {
		return &e, nil
	}

	r.RLock()
	defer r.RUnlock()

	packed, err := r.entries.Get(idKey(id))
	if nil != err {
		return nil, err
	}
	if nil == packed {
		return nil, fault.ErrPropertyNotFound
	}
	return Unpack(packed)
}

// Has - check if a property exists
func (r *Registry) Has(id uint32) (bool, error) {
	if IsImplied(id) {
		return true, nil
	}

	r.RLock()
	defer r.RUnlock()

	return r.entries.Has(idKey(id))
}

// FindByTx - the id of the property created by a transaction
func (r *Registry) FindByTx(txid digest.Digest) (uint32, error) {
	r.RLock()
	defer r.RUnlock()

	value, err := r.txs.Get(txid[:])
	if nil != err {
		return 0, err
	}
	if nil == value {
		return 0, fault.ErrPropertyNotFound
	}
	if 4 != len(value) {
		return 0, fault.ErrNotStoredRecord
	}
	return binary.BigEndian.Uint32(value), nil
}

// SetWatermark - durably record the last fully processed block
//
// the sync write also flushes all earlier buffered registry writes
func (r *Registry) SetWatermark(block digest.Digest) error {
	r.Lock()
	defer r.Unlock()

	if err := r.watermarks.PutSync([]byte{}, block[:]); nil != err {
		return err
	}
	r.log.Debugf("watermark: %s", block)
	return nil
}

// Watermark - the last fully processed block
func (r *Registry) Watermark() (digest.Digest, error) {
	r.RLock()
	defer r.RUnlock()

	var block digest.Digest
	value, err := r.watermarks.Get([]byte{})
	if nil != err {
		return block, err
	}
	if nil == value {
		return block, fault.ErrWatermarkNotFound
	}
	err = digest.FromBytes(&block, value)
	return block, err
}

// Map - run a function on every stored property in id order
//
// implied properties are not included, f must not call the registry
func (r *Registry) Map(f func(id uint32, entry *Entry) error) error {
	r.RLock()
	defer r.RUnlock()

	return r.entries.Map(func(key []byte, value []byte) error {
		if 4 != len(key) {
			return fault.ErrNotStoredRecord
		}
		e, err := Unpack(value)
		if nil != err {
			return err
		}
		return f(binary.BigEndian.Uint32(key), e)
	})
}

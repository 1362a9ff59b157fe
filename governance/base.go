// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package governance

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/tokenledger/spstore/storage"
)

// table prefixes
const (
	alliancePrefix = 'a'
	votePrefix     = 'v'
	txRecordPrefix = 'x'
)

// the database and single table shared by all the stores
type base struct {
	sync.RWMutex
	log   *logger.L
	store *storage.Store
	pool  *storage.PoolHandle
}

func (b *base) open(path string, wipe bool, tag string, prefix byte) error {
	b.log = logger.New(tag)

	store, err := storage.Open(path, wipe)
	if nil != err {
		b.log.Errorf("open: %q  error: %s", path, err)
		return err
	}
	b.store = store
	b.pool = store.Pool(prefix)

	b.log.Infof("opened: %q", path)
	return nil
}

// Close - release the database
func (b *base) Close() error {
	b.Lock()
	defer b.Unlock()

	b.log.Info("closing")
	return b.store.Close()
}

// Clear - delete every record
func (b *base) Clear() error {
	b.Lock()
	defer b.Unlock()

	b.log.Warn("clear")
	return b.store.Clear()
}

// Store - the underlying database
func (b *base) Store() *storage.Store {
	return b.store
}

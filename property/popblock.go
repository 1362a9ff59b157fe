// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property

import (
	"encoding/binary"

	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
)

// PopBlock - undo every property change made by a block
//
// properties created by the block are deleted, the rest are restored
// from the record saved before the block changed them. All records
// saved under the block are removed. The watermark is not changed.
//
// returns the number of properties affected; popping a block with no
// changes (or a block already popped) affects none
func (r *Registry) PopBlock(block digest.Digest) (int, error) {
	r.Lock()
	defer r.Unlock()

	type changed struct {
		id    uint32
		entry *Entry
	}
	affected := []changed{}

	err := r.entries.Map(func(key []byte, value []byte) error {
		e, err := Unpack(value)
		if nil != err {
			return err
		}
		if block == e.UpdateBlock {
			affected = append(affected, changed{
				id:    binary.BigEndian.Uint32(key),
				entry: e,
			})
		}
		return nil
	})
	if nil != err {
		return 0, err
	}

	saved := [][]byte{}
	err = r.blocks.NewPrefixCursor(block[:]).Map(func(key []byte, value []byte) error {
		saved = append(saved, key)
		return nil
	})
	if nil != err {
		return 0, err
	}

	if 0 == len(affected) && 0 == len(saved) {
		return 0, nil
	}

	trx, err := r.store.NewTransaction()
	if nil != err {
		return 0, err
	}

	nextMain := r.nextMain
	nextTest := r.nextTest

	for _, c := range affected {
		key := idKey(c.id)

		if block == c.entry.CreationBlock {
			trx.Delete(r.entries, key)
			trx.Delete(r.txs, c.entry.TxID[:])

			if Test == EcosystemOf(c.id) {
				if c.id < nextTest {
					nextTest = c.id
				}
			} else if c.id < nextMain {
				nextMain = c.id
			}
			r.log.Debugf("pop: %s  delete: %d", block, c.id)
			continue
		}

		previous, err := r.blocks.Get(snapshotKey(block, c.id))
		if nil != err {
			trx.Abort()
			return 0, err
		}
		if nil == previous {
			trx.Abort()
			fault.Criticalf("pop: %s  property: %d  has no saved record", block, c.id)
			return 0, fault.ErrMissingSnapshot
		}
		trx.Put(r.entries, key, previous)
		r.log.Debugf("pop: %s  restore: %d", block, c.id)
	}

	for _, key := range saved {
		trx.Delete(r.blocks, key)
	}

	if nextMain != r.nextMain {
		trx.Put(r.counters, []byte{byte(Main)}, idKey(nextMain))
	}
	if nextTest != r.nextTest {
		trx.Put(r.counters, []byte{byte(Test)}, idKey(nextTest))
	}

	if err := trx.Commit(true); nil != err {
		return 0, err
	}

	r.nextMain = nextMain
	r.nextTest = nextTest

	r.log.Warnf("popped block: %s  properties: %d", block, len(affected))
	return len(affected), nil
}

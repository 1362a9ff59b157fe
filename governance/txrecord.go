// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package governance

import (
	"encoding/binary"

	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/util"
)

// TxRecord - the external transaction linked to an address and property
type TxRecord struct {
	Address    string `json:"address"`
	PropertyID uint32 `json:"propertyId"`
	TxID       string `json:"txId"`
}

func txRecordKey(address string, id uint32) []byte {
	buffer := util.AppendString(nil, address)
	return append(buffer, byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// TxRecords - the cross-ledger transaction database
type TxRecords struct {
	base
}

// OpenTxRecords - open the cross-ledger transaction database
func OpenTxRecords(path string, wipe bool) (*TxRecords, error) {
	x := &TxRecords{}
	if err := x.open(path, wipe, "txrecords", txRecordPrefix); nil != err {
		return nil, err
	}
	return x, nil
}

// Put - link an external transaction, replacing any earlier one
func (x *TxRecords) Put(address string, id uint32, txid string) error {
	if err := util.CheckFields(address); nil != err {
		return err
	}

	x.Lock()
	defer x.Unlock()

	x.log.Debugf("put: %s  property: %d  tx: %s", address, id, txid)
	return x.pool.Put(txRecordKey(address, id), []byte(txid))
}

// Get - the external transaction linked to an address and property
func (x *TxRecords) Get(address string, id uint32) (string, error) {
	x.RLock()
	defer x.RUnlock()

	value, err := x.pool.Get(txRecordKey(address, id))
	if nil != err {
		return "", err
	}
	if nil == value {
		return "", fault.ErrTxRecordNotFound
	}
	return string(value), nil
}

// Has - check if a link exists
func (x *TxRecords) Has(address string, id uint32) (bool, error) {
	x.RLock()
	defer x.RUnlock()

	return x.pool.Has(txRecordKey(address, id))
}

// Delete - remove a link
func (x *TxRecords) Delete(address string, id uint32) error {
	x.Lock()
	defer x.Unlock()

	key := txRecordKey(address, id)
	found, err := x.pool.Has(key)
	if nil != err {
		return err
	}
	if !found {
		return fault.ErrTxRecordNotFound
	}
	return x.pool.Delete(key)
}

// All - every link in key order
func (x *TxRecords) All() ([]TxRecord, error) {
	x.RLock()
	defer x.RUnlock()

	records := []TxRecord{}
	err := x.pool.Map(func(key []byte, value []byte) error {
		r := util.NewRecordReader(key)
		address := r.Text()
		id := r.Fixed(4)
		if nil != r.Err() || 0 != r.Remaining() {
			return fault.ErrNotStoredRecord
		}
		records = append(records, TxRecord{
			Address:    address,
			PropertyID: binary.BigEndian.Uint32(id),
			TxID:       string(value),
		})
		return nil
	})
	return records, err
}

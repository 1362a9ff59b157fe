// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crowdsale

import (
	"fmt"
	"sync"

	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/property"
)

// Crowd - the live state of one open crowdsale
//
// the terms are fixed when the crowd is created; the running totals and
// the contribution ledger are guarded by the embedded lock
type Crowd struct {
	sync.RWMutex

	PropertyID      uint32
	DesiredProperty uint32
	Deadline        int64
	EarlyBird       uint8
	IssuerPercent   uint8
	Rate            int64
	MaxTokens       int64
	StartTime       int64
	TxID            digest.Digest

	raised        int64
	userCreated   int64
	issuerCreated int64
	database      map[digest.Digest]property.HistoryEntry
	dirty         bool
}

// NewCrowd - live state from the terms of a crowdsale property
func NewCrowd(id uint32, entry *property.Entry) *Crowd {
	return &Crowd{
		PropertyID:      id,
		DesiredProperty: entry.DesiredProperty,
		Deadline:        entry.Deadline,
		EarlyBird:       entry.EarlyBirdPercent,
		IssuerPercent:   entry.IssuerPercent,
		Rate:            entry.Rate,
		MaxTokens:       entry.MaxTokens,
		StartTime:       entry.StartTime,
		TxID:            entry.TxID,
		database:        make(map[digest.Digest]property.HistoryEntry),
	}
}

// IncTokensUserCreated - add to the purchaser total
func (c *Crowd) IncTokensUserCreated(amount int64) {
	c.Lock()
	c.userCreated += amount
	c.dirty = true
	c.Unlock()
}

// IncTokensIssuerCreated - add to the issuer total
func (c *Crowd) IncTokensIssuerCreated(amount int64) {
	c.Lock()
	c.issuerCreated += amount
	c.dirty = true
	c.Unlock()
}

// Raised - total amount contributed
func (c *Crowd) Raised() int64 {
	c.RLock()
	defer c.RUnlock()
	return c.raised
}

// UserCreated - tokens issued to purchasers
func (c *Crowd) UserCreated() int64 {
	c.RLock()
	defer c.RUnlock()
	return c.userCreated
}

// IssuerCreated - tokens issued to the issuer
func (c *Crowd) IssuerCreated() int64 {
	c.RLock()
	defer c.RUnlock()
	return c.issuerCreated
}

// Issued - all tokens issued so far
func (c *Crowd) Issued() int64 {
	c.RLock()
	defer c.RUnlock()
	return c.userCreated + c.issuerCreated
}

// InsertDatabase - record one contribution in the ledger
func (c *Crowd) InsertDatabase(txid digest.Digest, h property.HistoryEntry) error {
	c.Lock()
	defer c.Unlock()

	return c.insert(txid, h)
}

func (c *Crowd) insert(txid digest.Digest, h property.HistoryEntry) error {
	if _, ok := c.database[txid]; ok {
		return fault.ErrDuplicateTransaction
	}
	if nil == c.database {
		c.database = make(map[digest.Digest]property.HistoryEntry)
	}
	c.database[txid] = h
	c.dirty = true
	return nil
}

// apply one contribution to the ledger and all the totals at once
func (c *Crowd) addPurchase(txid digest.Digest, h property.HistoryEntry) error {
	c.Lock()
	defer c.Unlock()

	if err := c.insert(txid, h); nil != err {
		return err
	}
	c.raised += h.Amount
	c.userCreated += h.UserTokens
	c.issuerCreated += h.IssuerTokens
	return nil
}

// undo addPurchase, restoring the previous dirty flag
func (c *Crowd) removePurchase(txid digest.Digest, wasDirty bool) {
	c.Lock()
	defer c.Unlock()

	h, ok := c.database[txid]
	if !ok {
		return
	}
	delete(c.database, txid)
	c.raised -= h.Amount
	c.userCreated -= h.UserTokens
	c.issuerCreated -= h.IssuerTokens
	c.dirty = wasDirty
}

// Database - copy of the contribution ledger
func (c *Crowd) Database() map[digest.Digest]property.HistoryEntry {
	c.RLock()
	defer c.RUnlock()

	if 0 == len(c.database) {
		return nil
	}
	db := make(map[digest.Digest]property.HistoryEntry, len(c.database))
	for txid, h := range c.database {
		db[txid] = h
	}
	return db
}

// Contribution - one ledger entry
func (c *Crowd) Contribution(txid digest.Digest) (property.HistoryEntry, bool) {
	c.RLock()
	defer c.RUnlock()

	h, ok := c.database[txid]
	return h, ok
}

// Dirty - changed since the last checkpoint
func (c *Crowd) Dirty() bool {
	c.RLock()
	defer c.RUnlock()
	return c.dirty
}

func (c *Crowd) setClean() {
	c.Lock()
	c.dirty = false
	c.Unlock()
}

// Duration - seconds from opening to deadline
func (c *Crowd) Duration() int64 {
	return c.Deadline - c.StartTime
}

// String - one line summary
func (c *Crowd) String() string {
	c.RLock()
	defer c.RUnlock()

	return fmt.Sprintf("property: %d  raised: %d  desired: %d  deadline: %d  bonus: %d%%  issuer: %d%%  user created: %d  issuer created: %d  contributions: %d",
		c.PropertyID, c.raised, c.DesiredProperty, c.Deadline, c.EarlyBird, c.IssuerPercent,
		c.userCreated, c.issuerCreated, len(c.database))
}

// rebuild the live state from a stored property
func crowdFromEntry(id uint32, entry *property.Entry) *Crowd {
	c := NewCrowd(id, entry)
	for txid, h := range entry.History {
		c.database[txid] = h
		c.raised += h.Amount
		c.userCreated += h.UserTokens
		c.issuerCreated += h.IssuerTokens
	}
	return c
}

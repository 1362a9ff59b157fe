// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crowdsale

import (
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/property"
)

// Registry - the property operations needed by the crowdsales
type Registry interface {
	Get(id uint32) (*property.Entry, error)
	Update(id uint32, entry *property.Entry) error
	Map(f func(id uint32, entry *property.Entry) error) error
}

// Crowds - every live crowdsale, keyed by issuer address
type Crowds struct {
	sync.RWMutex

	log      *logger.L
	registry Registry
	crowds   map[string]*Crowd
}

// New - empty set of live crowdsales over a registry
func New(registry Registry) *Crowds {
	return &Crowds{
		log:      logger.New("crowdsale"),
		registry: registry,
		crowds:   make(map[string]*Crowd),
	}
}

// Open - start the live state for a stored crowdsale property
//
// an issuer can have only one open crowdsale
func (c *Crowds) Open(address string, id uint32) (*Crowd, error) {
	entry, err := c.registry.Get(id)
	if nil != err {
		return nil, err
	}
	if !entry.IsCrowdsale() {
		return nil, fault.ErrPropertyNotCrowdsale
	}

	c.Lock()
	defer c.Unlock()

	if _, ok := c.crowds[address]; ok {
		return nil, fault.ErrCrowdsaleExists
	}

	crowd := crowdFromEntry(id, entry)
	c.crowds[address] = crowd

	c.log.Infof("open: %s  %s", address, crowd)
	return crowd, nil
}

// Get - the live crowdsale of an issuer
func (c *Crowds) Get(address string) (*Crowd, bool) {
	c.RLock()
	defer c.RUnlock()

	crowd, ok := c.crowds[address]
	return crowd, ok
}

// Delete - remove a live crowdsale, true if it existed
func (c *Crowds) Delete(address string) bool {
	c.Lock()
	defer c.Unlock()

	if _, ok := c.crowds[address]; !ok {
		return false
	}
	delete(c.crowds, address)
	return true
}

// Len - number of live crowdsales
func (c *Crowds) Len() int {
	c.RLock()
	defer c.RUnlock()

	return len(c.crowds)
}

// sorted issuer addresses
func (c *Crowds) addresses() []string {
	c.RLock()
	defer c.RUnlock()

	addresses := make([]string, 0, len(c.crowds))
	for address := range c.crowds {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	return addresses
}

// Map - run a function on every live crowdsale in address order
func (c *Crowds) Map(f func(address string, crowd *Crowd) error) error {
	for _, address := range c.addresses() {
		crowd, ok := c.Get(address)
		if !ok {
			continue
		}
		if err := f(address, crowd); nil != err {
			return err
		}
	}
	return nil
}

// IsActive - true if the property has a live crowdsale
func (c *Crowds) IsActive(id uint32) bool {
	c.RLock()
	defer c.RUnlock()

	for _, crowd := range c.crowds {
		if id == crowd.PropertyID {
			return true
		}
	}
	return false
}

// PurchaseRecord - a contribution found in a crowdsale ledger
type PurchaseRecord struct {
	PropertyID uint32
	property.HistoryEntry
}

// IsPurchase - find a contribution by transaction, first in the live
// crowdsale of the issuer and then in the ledgers of its closed ones
func (c *Crowds) IsPurchase(txid digest.Digest, address string) (PurchaseRecord, bool, error) {
	if crowd, ok := c.Get(address); ok {
		if h, ok := crowd.Contribution(txid); ok {
			return PurchaseRecord{PropertyID: crowd.PropertyID, HistoryEntry: h}, true, nil
		}
	}

	result := PurchaseRecord{}
	found := false
	err := c.registry.Map(func(id uint32, entry *property.Entry) error {
		if found || address != entry.Issuer || !entry.IsCrowdsale() {
			return nil
		}
		if h, ok := entry.History[txid]; ok {
			result = PurchaseRecord{PropertyID: id, HistoryEntry: h}
			found = true
		}
		return nil
	})
	return result, found, err
}

// Rebuild - replace the live state with every crowdsale the registry
// records as still open
func (c *Crowds) Rebuild() error {
	crowds := make(map[string]*Crowd)
	err := c.registry.Map(func(id uint32, entry *property.Entry) error {
		if !entry.IsCrowdsale() || 0 != entry.TimeClosed || entry.CloseEarly {
			return nil
		}
		if _, ok := crowds[entry.Issuer]; ok {
			fault.Criticalf("rebuild: %s  property: %d  issuer already has an open crowdsale", entry.Issuer, id)
			return fault.ErrCrowdsaleExists
		}
		crowds[entry.Issuer] = crowdFromEntry(id, entry)
		return nil
	})
	if nil != err {
		return err
	}

	c.Lock()
	c.crowds = crowds
	c.Unlock()

	c.log.Infof("rebuilt: %d open crowdsales", len(crowds))
	return nil
}

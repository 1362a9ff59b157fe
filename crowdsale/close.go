// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crowdsale

import (
	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/property"
)

// Reason - why a crowdsale closed
type Reason int

// close reasons
const (
	Expired Reason = iota // deadline passed
	Maxed                 // token cap reached
	Closed                // explicit close transaction
)

// String - reason name
func (r Reason) String() string {
	switch r {
	case Expired:
		return "expired"
	case Maxed:
		return "maxed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Closure - the result of closing one crowdsale
//
// MissedTokens are owed to the issuer and must be credited by the caller
type Closure struct {
	Address      string
	PropertyID   uint32
	MissedTokens int64
	Reason       Reason
}

// Receipt - the result of one purchase
type Receipt struct {
	PropertyID   uint32
	UserTokens   int64
	IssuerTokens int64
	Closure      *Closure // set if the purchase closed the crowdsale
}

// Purchase - apply one contribution to the live crowdsale of an issuer
func (c *Crowds) Purchase(address string, txid digest.Digest, amount int64, blockTime int64, block digest.Digest) (*Receipt, error) {
	crowd, ok := c.Get(address)
	if !ok {
		return nil, fault.ErrCrowdsaleNotFound
	}
	if _, ok := crowd.Contribution(txid); ok {
		return nil, fault.ErrDuplicateTransaction
	}

	desired, err := c.registry.Get(crowd.DesiredProperty)
	if nil != err {
		return nil, err
	}

	allocation := CalculateFundraiser(Fundraiser{
		InflateAmount: !desired.IsDivisible(),
		Amount:        amount,
		BonusPercent:  crowd.EarlyBird,
		Duration:      crowd.Duration(),
		Elapsed:       blockTime - crowd.StartTime,
		Rate:          crowd.Rate,
		IssuerPercent: crowd.IssuerPercent,
		IssuedSoFar:   crowd.Issued(),
		MaxTokens:     crowd.MaxTokens,
	})

	wasDirty := crowd.Dirty()
	err = crowd.addPurchase(txid, property.HistoryEntry{
		Amount:       amount,
		Deadline:     crowd.Deadline,
		UserTokens:   allocation.UserTokens,
		IssuerTokens: allocation.IssuerTokens,
	})
	if nil != err {
		return nil, err
	}

	c.log.Debugf("purchase: %s  tx: %s  amount: %d  user: %d  issuer: %d", address, txid, amount, allocation.UserTokens, allocation.IssuerTokens)

	receipt := &Receipt{
		PropertyID:   crowd.PropertyID,
		UserTokens:   allocation.UserTokens,
		IssuerTokens: allocation.IssuerTokens,
	}
	if !allocation.Close {
		return receipt, nil
	}

	reason := Expired
	if crowd.MaxTokens > 0 && crowd.Issued() >= crowd.MaxTokens {
		reason = Maxed
	}
	closure, err := c.closeOut(address, crowd, reason, blockTime, block, digest.Digest{})
	if nil != err {
		// the crowdsale stays open without this contribution
		crowd.removePurchase(txid, wasDirty)
		return nil, err
	}
	receipt.Closure = closure
	return receipt, nil
}

// EraseMaxed - close every crowdsale that has reached its token cap
func (c *Crowds) EraseMaxed(blockTime int64, block digest.Digest) ([]Closure, error) {
	return c.eraseWhere(Maxed, blockTime, block, func(crowd *Crowd) bool {
		return crowd.MaxTokens > 0 && crowd.Issued() >= crowd.MaxTokens
	})
}

// EraseExpired - close every crowdsale whose deadline is before the block time
func (c *Crowds) EraseExpired(blockTime int64, block digest.Digest) ([]Closure, error) {
	return c.eraseWhere(Expired, blockTime, block, func(crowd *Crowd) bool {
		return blockTime > crowd.Deadline
	})
}

func (c *Crowds) eraseWhere(reason Reason, blockTime int64, block digest.Digest, match func(*Crowd) bool) ([]Closure, error) {
	closures := []Closure{}
	for _, address := range c.addresses() {
		crowd, ok := c.Get(address)
		if !ok || !match(crowd) {
			continue
		}
		closure, err := c.closeOut(address, crowd, reason, blockTime, block, digest.Digest{})
		if nil != err {
			return closures, err
		}
		closures = append(closures, *closure)
	}
	return closures, nil
}

// Close - close a crowdsale by an explicit transaction of its issuer
func (c *Crowds) Close(address string, txid digest.Digest, blockTime int64, block digest.Digest) (*Closure, error) {
	crowd, ok := c.Get(address)
	if !ok {
		return nil, fault.ErrCrowdsaleNotFound
	}
	return c.closeOut(address, crowd, Closed, blockTime, block, txid)
}

// finalise the property record and drop the live state
func (c *Crowds) closeOut(address string, crowd *Crowd, reason Reason, blockTime int64, block digest.Digest, txid digest.Digest) (*Closure, error) {
	entry, err := c.registry.Get(crowd.PropertyID)
	if nil != err {
		return nil, err
	}

	missed := MissedIssuerBonus(entry, crowd)

	switch reason {
	case Maxed:
		entry.CloseEarly = true
		entry.MaxTokensReached = true
	case Closed:
		entry.CloseEarly = true
		entry.MaxTokensReached = false
		entry.CloseTxID = txid
	default:
		entry.CloseEarly = false
	}
	entry.TimeClosed = blockTime
	entry.UpdateBlock = block
	entry.History = crowd.Database()
	entry.MissedTokens = missed
	entry.NumTokens = crowd.Issued() + missed

	if err := c.registry.Update(crowd.PropertyID, entry); nil != err {
		return nil, err
	}
	c.Delete(address)

	c.log.Infof("close: %s  property: %d  reason: %s  missed: %d", address, crowd.PropertyID, reason, missed)

	return &Closure{
		Address:      address,
		PropertyID:   crowd.PropertyID,
		MissedTokens: missed,
		Reason:       reason,
	}, nil
}

// Checkpoint - write the ledger and totals of every changed crowdsale
// into its property record
func (c *Crowds) Checkpoint(block digest.Digest) (int, error) {
	count := 0
	err := c.Map(func(address string, crowd *Crowd) error {
		if !crowd.Dirty() {
			return nil
		}
		entry, err := c.registry.Get(crowd.PropertyID)
		if nil != err {
			return err
		}
		entry.History = crowd.Database()
		entry.NumTokens = crowd.Issued()
		entry.UpdateBlock = block
		if err := c.registry.Update(crowd.PropertyID, entry); nil != err {
			return err
		}
		crowd.setClean()
		count += 1
		return nil
	})
	return count, err
}

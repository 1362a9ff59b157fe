// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package state

import (
	"github.com/tokenledger/spstore/crowdsale"
	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/property"
)

// CreateProperty - store a new fixed or managed property
func (c *Context) CreateProperty(eco property.Ecosystem, entry *property.Entry) (uint32, error) {
	c.Lock()
	defer c.Unlock()

	id, err := c.registry.Put(eco, entry)
	if nil != err {
		return 0, err
	}
	c.metrics.properties.Inc()
	return id, nil
}

// OpenCrowdsale - store a crowdsale property and start its live state
//
// StartTime is taken from blockTime when not already set
func (c *Context) OpenCrowdsale(eco property.Ecosystem, entry *property.Entry, blockTime int64) (uint32, error) {
	c.Lock()
	defer c.Unlock()

	if !entry.IsCrowdsale() {
		return 0, fault.ErrPropertyNotCrowdsale
	}
	if _, ok := c.crowds.Get(entry.Issuer); ok {
		return 0, fault.ErrCrowdsaleExists
	}
	if 0 == entry.StartTime {
		entry.StartTime = blockTime
	}

	id, err := c.registry.Put(eco, entry)
	if nil != err {
		return 0, err
	}
	if _, err := c.crowds.Open(entry.Issuer, id); nil != err {
		c.log.Criticalf("open crowdsale: %s  property: %d  error: %s", entry.Issuer, id, err)
		return 0, err
	}

	c.metrics.properties.Inc()
	c.metrics.live.Set(float64(c.crowds.Len()))
	c.log.Debugf("open crowdsale: %s  property: %d", entry.Issuer, id)
	return id, nil
}

// Purchase - apply a contribution to the crowdsale of an issuer
func (c *Context) Purchase(address string, txid digest.Digest, amount int64, blockTime int64, block digest.Digest) (*crowdsale.Receipt, error) {
	c.Lock()
	defer c.Unlock()

	receipt, err := c.crowds.Purchase(address, txid, amount, blockTime, block)
	if nil != err {
		return nil, err
	}
	c.metrics.purchases.Inc()
	if nil != receipt.Closure {
		c.metrics.observeClosures(*receipt.Closure)
		c.metrics.live.Set(float64(c.crowds.Len()))
	}
	return receipt, nil
}

// CloseCrowdsale - explicit close of a crowdsale by its issuer
func (c *Context) CloseCrowdsale(address string, txid digest.Digest, blockTime int64, block digest.Digest) (*crowdsale.Closure, error) {
	c.Lock()
	defer c.Unlock()

	closure, err := c.crowds.Close(address, txid, blockTime, block)
	if nil != err {
		return nil, err
	}
	c.metrics.observeClosures(*closure)
	c.metrics.live.Set(float64(c.crowds.Len()))
	return closure, nil
}

// EndBlock - finish the state of one block
//
// expired crowdsales are closed, the remaining live ones written to
// their records and then the watermark is advanced durably; any error
// leaves the watermark at the previous block
func (c *Context) EndBlock(block digest.Digest, blockTime int64) ([]crowdsale.Closure, error) {
	c.Lock()
	defer c.Unlock()

	closures, err := c.crowds.EraseExpired(blockTime, block)
	c.metrics.observeClosures(closures...)
	c.metrics.live.Set(float64(c.crowds.Len()))
	if nil != err {
		c.log.Errorf("end block: %s  expire error: %s", block, err)
		return closures, err
	}

	n, err := c.crowds.Checkpoint(block)
	if nil != err {
		c.log.Errorf("end block: %s  checkpoint error: %s", block, err)
		return closures, err
	}

	if err := c.registry.SetWatermark(block); nil != err {
		c.log.Errorf("end block: %s  watermark error: %s", block, err)
		return closures, err
	}

	c.metrics.blocks.Inc()
	c.log.Debugf("end block: %s  closed: %d  checkpointed: %d", block, len(closures), n)
	return closures, nil
}

// Rollback - undo blocks back to a common ancestor
//
// blocks are given newest first; the watermark is reset to the ancestor
// and the live crowdsales rebuilt from the restored records
func (c *Context) Rollback(blocks []digest.Digest, ancestor digest.Digest) (int, error) {
	c.Lock()
	defer c.Unlock()

	total := 0
	for _, block := range blocks {
		n, err := c.registry.PopBlock(block)
		if nil != err {
			c.log.Criticalf("rollback: %s  error: %s", block, err)
			return total, err
		}
		total += n
	}

	if err := c.registry.SetWatermark(ancestor); nil != err {
		return total, err
	}
	if err := c.crowds.Rebuild(); nil != err {
		return total, err
	}

	c.metrics.rollbacks.Inc()
	c.metrics.popped.Add(float64(total))
	c.metrics.live.Set(float64(c.crowds.Len()))

	c.log.Warnf("rollback: %d blocks to: %s  properties: %d", len(blocks), ancestor, total)
	return total, nil
}

// Resume - the last block fully applied
//
// a fresh database returns false
func (c *Context) Resume() (digest.Digest, bool, error) {
	block, err := c.registry.Watermark()
	if fault.ErrWatermarkNotFound == err {
		return digest.Digest{}, false, nil
	}
	if nil != err {
		return digest.Digest{}, false, err
	}
	return block, true, nil
}

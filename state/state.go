// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package state

import (
	"path/filepath"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tokenledger/spstore/crowdsale"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/governance"
	"github.com/tokenledger/spstore/property"
)

// default database names, relative to the directory
const (
	DefaultRegistry  = "registry.leveldb"
	DefaultAlliance  = "alliance.leveldb"
	DefaultVotes     = "votes.leveldb"
	DefaultTxRecords = "txrecords.leveldb"
)

// Configuration - the database files
type Configuration struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Registry  string `gluamapper:"registry" json:"registry"`
	Alliance  string `gluamapper:"alliance" json:"alliance"`
	Votes     string `gluamapper:"votes" json:"votes"`
	TxRecords string `gluamapper:"tx_records" json:"tx_records"`
	Exodus    string `gluamapper:"exodus" json:"exodus"`
	Wipe      bool   `gluamapper:"wipe" json:"wipe"`
}

// Context - every store of the process and the live crowdsales
//
// one writer drives the hooks; the embedded mutex serialises them
type Context struct {
	sync.Mutex

	log     *logger.L
	metrics *metrics

	registry  *property.Registry
	crowds    *crowdsale.Crowds
	alliances *governance.Alliances
	votes     *governance.Votes
	txRecords *governance.TxRecords

	closed bool
}

// resolve a database name against the directory
func (conf *Configuration) path(name string, def string) string {
	if "" == name {
		name = def
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(conf.Directory, name)
}

// Open - open every database and rebuild the live crowdsales
//
// on error anything already opened is closed again
func Open(conf Configuration) (*Context, error) {
	log := logger.New("state")

	if "" == conf.Directory {
		log.Critical("no directory configured")
		return nil, fault.ErrMissingConfiguration
	}

	c := &Context{
		log:     log,
		metrics: newMetrics(),
	}

	var err error

	c.registry, err = property.Open(conf.path(conf.Registry, DefaultRegistry), conf.Wipe, conf.Exodus)
	if nil != err {
		return nil, c.abort("registry", err)
	}

	c.alliances, err = governance.OpenAlliances(conf.path(conf.Alliance, DefaultAlliance), conf.Wipe, conf.Exodus)
	if nil != err {
		return nil, c.abort("alliance", err)
	}

	c.votes, err = governance.OpenVotes(conf.path(conf.Votes, DefaultVotes), conf.Wipe)
	if nil != err {
		return nil, c.abort("votes", err)
	}

	c.txRecords, err = governance.OpenTxRecords(conf.path(conf.TxRecords, DefaultTxRecords), conf.Wipe)
	if nil != err {
		return nil, c.abort("tx records", err)
	}

	c.crowds = crowdsale.New(c.registry)
	if err := c.crowds.Rebuild(); nil != err {
		return nil, c.abort("crowdsales", err)
	}
	c.metrics.live.Set(float64(c.crowds.Len()))

	log.Infof("opened: %q", conf.Directory)
	return c, nil
}

func (c *Context) abort(what string, err error) error {
	c.log.Errorf("open %s error: %s", what, err)
	_ = c.Close()
	return err
}

// Close - release every database, safe to call more than once
//
// returns the first error seen
func (c *Context) Close() error {
	c.Lock()
	defer c.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var first error
	keep := func(err error) {
		if nil != err && nil == first {
			first = err
		}
	}

	if nil != c.txRecords {
		keep(c.txRecords.Close())
	}
	if nil != c.votes {
		keep(c.votes.Close())
	}
	if nil != c.alliances {
		keep(c.alliances.Close())
	}
	if nil != c.registry {
		keep(c.registry.Close())
	}

	c.log.Info("closed")
	return first
}

// Registry - the property registry
func (c *Context) Registry() *property.Registry {
	return c.registry
}

// Crowds - the live crowdsales
func (c *Context) Crowds() *crowdsale.Crowds {
	return c.crowds
}

// Alliances - the alliance store
func (c *Context) Alliances() *governance.Alliances {
	return c.alliances
}

// Votes - the vote record store
func (c *Context) Votes() *governance.Votes {
	return c.votes
}

// TxRecords - the cross-ledger transaction store
func (c *Context) TxRecords() *governance.TxRecords {
	return c.txRecords
}

// Gatherer - metrics of this context
func (c *Context) Gatherer() prometheus.Gatherer {
	return c.metrics.registry
}

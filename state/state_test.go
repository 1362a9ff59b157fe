// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package state

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenledger/spstore/crowdsale"
	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/property"
)

func TestOpenWithoutDirectory(t *testing.T) {
	_, err := Open(Configuration{})
	assert.Equal(t, fault.ErrMissingConfiguration, err, "wrong error")
}

func TestConfigurationPath(t *testing.T) {
	conf := Configuration{Directory: "/var/lib/spstore"}

	assert.Equal(t, "/var/lib/spstore/registry.leveldb", conf.path("", DefaultRegistry), "wrong default")
	assert.Equal(t, "/var/lib/spstore/other.db", conf.path("other.db", DefaultRegistry), "wrong relative")
	assert.Equal(t, "/data/x.db", conf.path("/data/../data/x.db", DefaultRegistry), "wrong absolute")
}

func TestCloseTwice(t *testing.T) {
	c := setupTestContext(t)

	assert.Nil(t, c.Close(), "first close")
	assert.Nil(t, c.Close(), "second close")
}

func TestFreshResume(t *testing.T) {
	c := setupTestContext(t)
	defer c.Close()

	_, ok, err := c.Resume()
	require.Nil(t, err, "resume error")
	assert.False(t, ok, "fresh database has a watermark")

	approved, err := c.Alliances().IsApproved(exodusAddress)
	require.Nil(t, err, "alliance error")
	assert.True(t, approved, "founding alliance not approved")
}

func TestCreateProperty(t *testing.T) {
	c := setupTestContext(t)
	defer c.Close()

	b1 := hashOf(0xb1)
	id, err := c.CreateProperty(property.Main, fixedEntry("alice", 1, b1))
	require.Nil(t, err, "create error")
	assert.Equal(t, property.FirstMainID, id, "wrong id")

	_, err = c.CreateProperty(property.Main, fixedEntry("alice", 1, b1))
	assert.Equal(t, fault.ErrDuplicateTransaction, err, "duplicate accepted")

	_, err = c.OpenCrowdsale(property.Main, fixedEntry("bob", 2, b1), startTime)
	assert.Equal(t, fault.ErrPropertyNotCrowdsale, err, "fixed property opened as crowdsale")

	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.properties), "wrong properties metric")
}

func TestOpenCrowdsaleTwice(t *testing.T) {
	c := setupTestContext(t)
	defer c.Close()

	b1 := hashOf(0xb1)
	id, err := c.OpenCrowdsale(property.Main, crowdsaleEntry("alice", 1, b1), startTime)
	require.Nil(t, err, "open error")

	entry, err := c.Registry().Get(id)
	require.Nil(t, err, "get error")
	assert.Equal(t, int64(startTime), entry.StartTime, "start time not set")
	assert.True(t, c.Crowds().IsActive(id), "crowdsale not active")

	next, err := c.Registry().PeekNextID(property.Main)
	require.Nil(t, err, "peek error")

	_, err = c.OpenCrowdsale(property.Main, crowdsaleEntry("alice", 2, b1), startTime)
	assert.Equal(t, fault.ErrCrowdsaleExists, err, "second crowdsale for issuer")

	after, err := c.Registry().PeekNextID(property.Main)
	require.Nil(t, err, "peek error")
	assert.Equal(t, next, after, "rejected crowdsale used an id")
}

func TestBlockLifecycle(t *testing.T) {
	c := setupTestContext(t)
	defer c.Close()

	b1 := hashOf(0xb1)
	b2 := hashOf(0xb2)
	b3 := hashOf(0xb3)

	id, err := c.OpenCrowdsale(property.Main, crowdsaleEntry("alice", 1, b1), startTime)
	require.Nil(t, err, "open error")

	receipt, err := c.Purchase("alice", hashOf(0x11), 5*unit, startTime, b1)
	require.Nil(t, err, "purchase error")
	assert.Equal(t, int64(550), receipt.UserTokens, "wrong user tokens")
	assert.Equal(t, int64(5), receipt.IssuerTokens, "wrong issuer tokens")

	closures, err := c.EndBlock(b1, startTime)
	require.Nil(t, err, "end block error")
	assert.Equal(t, 0, len(closures), "crowdsale closed early")

	block, ok, err := c.Resume()
	require.Nil(t, err, "resume error")
	require.True(t, ok, "missing watermark")
	assert.Equal(t, b1, block, "wrong watermark")

	// second block: one more purchase at half time
	receipt, err = c.Purchase("alice", hashOf(0x12), 1*unit, startTime+day/2, b2)
	require.Nil(t, err, "purchase error")
	assert.Equal(t, int64(105), receipt.UserTokens, "wrong user tokens")
	assert.Equal(t, int64(1), receipt.IssuerTokens, "wrong issuer tokens")

	_, err = c.EndBlock(b2, startTime+day/2)
	require.Nil(t, err, "end block error")

	entry, err := c.Registry().Get(id)
	require.Nil(t, err, "get error")
	assert.Equal(t, int64(661), entry.NumTokens, "wrong checkpointed supply")
	assert.Equal(t, b2, entry.UpdateBlock, "wrong update block")

	// reorganise away the second block
	n, err := c.Rollback([]digest.Digest{b2}, b1)
	require.Nil(t, err, "rollback error")
	assert.Equal(t, 1, n, "wrong properties popped")

	block, ok, err = c.Resume()
	require.Nil(t, err, "resume error")
	require.True(t, ok, "missing watermark")
	assert.Equal(t, b1, block, "watermark not reset")

	entry, err = c.Registry().Get(id)
	require.Nil(t, err, "get error")
	assert.Equal(t, int64(555), entry.NumTokens, "supply not restored")
	assert.Equal(t, b1, entry.UpdateBlock, "update block not restored")

	crowd, ok := c.Crowds().Get("alice")
	require.True(t, ok, "crowdsale not rebuilt")
	assert.Equal(t, int64(555), crowd.Issued(), "wrong rebuilt issued")
	_, ok = crowd.Contribution(hashOf(0x12))
	assert.False(t, ok, "popped contribution still present")

	// a later block passes the deadline
	closures, err = c.EndBlock(b3, startTime+day+1)
	require.Nil(t, err, "end block error")
	require.Equal(t, 1, len(closures), "crowdsale not expired")
	assert.Equal(t, crowdsale.Expired, closures[0].Reason, "wrong reason")
	assert.Equal(t, id, closures[0].PropertyID, "wrong property")

	entry, err = c.Registry().Get(id)
	require.Nil(t, err, "get error")
	assert.Equal(t, int64(startTime+day+1), entry.TimeClosed, "wrong close time")
	assert.False(t, entry.CloseEarly, "expired crowdsale closed early")

	assert.Equal(t, float64(3), testutil.ToFloat64(c.metrics.blocks), "wrong blocks metric")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.rollbacks), "wrong rollbacks metric")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.popped), "wrong popped metric")
	assert.Equal(t, float64(2), testutil.ToFloat64(c.metrics.purchases), "wrong purchases metric")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.closed.WithLabelValues("expired")), "wrong closed metric")
	assert.Equal(t, float64(0), testutil.ToFloat64(c.metrics.live), "wrong live metric")
}

func TestCloseCrowdsale(t *testing.T) {
	c := setupTestContext(t)
	defer c.Close()

	b1 := hashOf(0xb1)
	b2 := hashOf(0xb2)
	id, err := c.OpenCrowdsale(property.Main, crowdsaleEntry("alice", 1, b1), startTime)
	require.Nil(t, err, "open error")

	_, err = c.CloseCrowdsale("bob", hashOf(0x20), startTime, b1)
	assert.Equal(t, fault.ErrCrowdsaleNotFound, err, "closed unknown crowdsale")

	closure, err := c.CloseCrowdsale("alice", hashOf(0x21), startTime+10, b2)
	require.Nil(t, err, "close error")
	assert.Equal(t, crowdsale.Closed, closure.Reason, "wrong reason")

	entry, err := c.Registry().Get(id)
	require.Nil(t, err, "get error")
	assert.True(t, entry.CloseEarly, "not closed early")
	assert.Equal(t, hashOf(0x21), entry.CloseTxID, "wrong closing tx")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.closed.WithLabelValues("closed")), "wrong closed metric")

	_, err = c.Purchase("alice", hashOf(0x22), unit, startTime+20, b2)
	assert.Equal(t, fault.ErrCrowdsaleNotFound, err, "purchase after close")
}

func TestReopenRebuildsCrowds(t *testing.T) {
	c := setupTestContext(t)

	b1 := hashOf(0xb1)
	id, err := c.OpenCrowdsale(property.Main, crowdsaleEntry("alice", 1, b1), startTime)
	require.Nil(t, err, "open error")
	_, err = c.Purchase("alice", hashOf(0x11), 5*unit, startTime, b1)
	require.Nil(t, err, "purchase error")
	_, err = c.EndBlock(b1, startTime)
	require.Nil(t, err, "end block error")
	require.Nil(t, c.Close(), "close error")

	c, err = Open(testConfiguration(false))
	require.Nil(t, err, "reopen error")
	defer c.Close()

	crowd, ok := c.Crowds().Get("alice")
	require.True(t, ok, "crowdsale not rebuilt")
	assert.Equal(t, id, crowd.PropertyID, "wrong property")
	assert.Equal(t, int64(555), crowd.Issued(), "wrong issued")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.live), "wrong live metric")

	block, ok, err := c.Resume()
	require.Nil(t, err, "resume error")
	assert.True(t, ok, "missing watermark")
	assert.Equal(t, b1, block, "wrong watermark")
}

func TestGatherer(t *testing.T) {
	c := setupTestContext(t)
	defer c.Close()

	families, err := c.Gatherer().Gather()
	require.Nil(t, err, "gather error")

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["spstore_blocks_processed_total"], "missing blocks metric")
	assert.True(t, names["spstore_crowdsales_live"], "missing live metric")
}

func TestDatabasesInDirectory(t *testing.T) {
	c := setupTestContext(t)
	defer c.Close()

	assert.Equal(t, filepath.Join(testingDirName, DefaultRegistry), c.Registry().Store().Path(), "wrong registry path")
	assert.Equal(t, filepath.Join(testingDirName, DefaultVotes), c.Votes().Store().Path(), "wrong votes path")
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package governance

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/util"
)

func setupTestAlliances(t *testing.T) *Alliances {
	a, err := OpenAlliances(allianceDBName, true, exodusAddress)
	if nil != err {
		t.Fatalf("alliance open error: %s", err)
	}
	return a
}

func pendingAlliance(address string, threshold uint32) *Alliance {
	return &Alliance{
		Address:          address,
		Name:             "alliance " + address,
		URL:              "https://example.com/" + address,
		Data:             "application",
		TxID:             hashOf(1),
		CreationBlock:    hashOf(2),
		UpdateBlock:      hashOf(2),
		Status:           Pending,
		ApproveThreshold: threshold,
	}
}

func TestAlliancePackUnpack(t *testing.T) {
	a := pendingAlliance("addr", 3)
	a.ApproveCount = 2
	a.RejectCount = 1

	actual, err := UnpackAlliance(a.Pack())
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, a, actual, "round trip changed the alliance")

	packed := a.Pack()
	_, err = UnpackAlliance(packed[:len(packed)-1])
	assert.Equal(t, fault.ErrNotAllianceRecord, err, "truncated record accepted")
}

func TestFounderAlliance(t *testing.T) {
	a := setupTestAlliances(t)
	defer a.Close()

	found, err := a.Has(exodusAddress)
	assert.Nil(t, err, "has error")
	assert.True(t, found, "founder missing")

	approved, err := a.IsApproved(exodusAddress)
	assert.Nil(t, err, "is approved error")
	assert.True(t, approved, "founder not approved")

	assert.Equal(t, fault.ErrAllianceExists, a.Put(pendingAlliance(exodusAddress, 1)), "founder replaced")
	assert.Equal(t, fault.ErrImpliedAlliance, a.Update(pendingAlliance(exodusAddress, 1)), "founder updated")
	assert.Equal(t, fault.ErrImpliedAlliance, a.Delete(exodusAddress), "founder deleted")

	threshold, err := a.ApproveThreshold()
	assert.Nil(t, err, "threshold error")
	assert.Equal(t, uint32(1), threshold, "wrong threshold with only the founder")
}

func TestAllianceCRUD(t *testing.T) {
	a := setupTestAlliances(t)
	defer a.Close()

	p := pendingAlliance("member-1", 1)
	require.Nil(t, a.Put(p), "put error")
	assert.Equal(t, fault.ErrAllianceExists, a.Put(p), "duplicate put")

	actual, err := a.Get("member-1")
	require.Nil(t, err, "get error")
	assert.Equal(t, p, actual, "stored alliance differs")

	_, err = a.Get("unknown")
	assert.Equal(t, fault.ErrAllianceNotFound, err, "unknown alliance found")
	assert.Equal(t, fault.ErrAllianceNotFound, a.Update(pendingAlliance("unknown", 1)), "unknown alliance updated")

	p.Name = "renamed"
	require.Nil(t, a.Update(p), "update error")
	actual, _ = a.Get("member-1")
	assert.Equal(t, "renamed", actual.Name, "update not stored")

	bad := pendingAlliance("member-2", 1)
	bad.Status = Status(9)
	assert.Equal(t, fault.ErrInvalidStatus, a.Put(bad), "invalid status accepted")

	all, err := a.All()
	require.Nil(t, err, "all error")
	require.Equal(t, 2, len(all), "wrong count")
	assert.Equal(t, exodusAddress, all[0].Address, "founder not first")

	require.Nil(t, a.Delete("member-1"), "delete error")
	assert.Equal(t, fault.ErrAllianceNotFound, a.Delete("member-1"), "second delete")

	found, _ := a.Has("member-1")
	assert.False(t, found, "deleted alliance found")
}

func TestAllianceApproval(t *testing.T) {
	a := setupTestAlliances(t)
	defer a.Close()

	threshold, _ := a.ApproveThreshold()
	p := pendingAlliance("applicant", threshold)
	require.Nil(t, a.Put(p), "put error")

	err := a.SetStatus("applicant", Approved, hashOf(3))
	assert.Equal(t, fault.ErrApprovalBelowThreshold, err, "approved without votes")

	// reads never change the status
	approved, _ := a.IsApproved("applicant")
	assert.False(t, approved, "pending alliance approved")

	tallied, err := a.Tally("applicant", true, hashOf(3))
	require.Nil(t, err, "tally error")
	assert.Equal(t, uint32(1), tallied.ApproveCount, "vote not counted")
	assert.Equal(t, Pending, tallied.Status, "tally changed the status")

	stored, _ := a.Get("applicant")
	assert.Equal(t, Pending, stored.Status, "status changed without a decision")

	require.Nil(t, a.SetStatus("applicant", Approved, hashOf(4)), "approve error")

	approved, _ = a.IsApproved("applicant")
	assert.True(t, approved, "alliance not approved")

	stored, _ = a.Get("applicant")
	assert.Equal(t, hashOf(4), stored.UpdateBlock, "update block not set")

	list, _ := a.Approved()
	assert.Equal(t, 2, len(list), "wrong approved count")

	threshold, _ = a.ApproveThreshold()
	assert.Equal(t, uint32(2), threshold, "wrong threshold with two members")

	assert.Equal(t, fault.ErrInvalidStatusTransition, a.SetStatus("applicant", Rejected, hashOf(5)), "approved alliance rejected")
	_, err = a.Tally("applicant", false, hashOf(5))
	assert.Equal(t, fault.ErrInvalidStatusTransition, err, "vote counted after decision")
}

func TestAllianceRejection(t *testing.T) {
	a := setupTestAlliances(t)
	defer a.Close()

	require.Nil(t, a.Put(pendingAlliance("applicant", 1)), "put error")

	_, err := a.Tally("applicant", false, hashOf(3))
	require.Nil(t, err, "tally error")

	assert.Equal(t, fault.ErrInvalidStatusTransition, a.SetStatus("applicant", Pending, hashOf(3)), "pending to pending")
	assert.Equal(t, fault.ErrInvalidStatus, a.SetStatus("applicant", Status(7), hashOf(3)), "invalid status")

	require.Nil(t, a.SetStatus("applicant", Rejected, hashOf(3)), "reject error")

	stored, _ := a.Get("applicant")
	assert.Equal(t, Rejected, stored.Status, "not rejected")
	assert.Equal(t, uint32(1), stored.RejectCount, "wrong reject count")

	assert.Equal(t, fault.ErrInvalidStatusTransition, a.SetStatus("applicant", Approved, hashOf(4)), "rejected alliance approved")
}

func TestAllianceClearAndPrint(t *testing.T) {
	a := setupTestAlliances(t)
	defer a.Close()

	require.Nil(t, a.Put(pendingAlliance("one", 1)), "put error")
	require.Nil(t, a.Put(pendingAlliance("two", 1)), "put error")

	buffer := &bytes.Buffer{}
	require.Nil(t, a.PrintAll(buffer), "print error")
	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.Equal(t, 4, len(lines), "wrong line count")
	assert.Contains(t, lines[0], `"status":"approved"`, "founder line")
	assert.Contains(t, lines[1], `"status":"pending"`, "member line")
	assert.Equal(t, "# alliances: 3", lines[3], "summary line")

	require.Nil(t, a.Clear(), "clear error")
	all, _ := a.All()
	assert.Equal(t, 1, len(all), "clear left alliances")

	found, _ := a.Has(exodusAddress)
	assert.True(t, found, "clear removed the founder")
}

func TestAllianceDefaultThreshold(t *testing.T) {
	a := setupTestAlliances(t)
	defer a.Close()

	p := pendingAlliance("applicant", 0)
	require.Nil(t, a.Put(p), "put error")
	assert.Equal(t, uint32(0), p.ApproveThreshold, "caller's alliance was modified")

	stored, err := a.Get("applicant")
	require.Nil(t, err, "get error")
	assert.Equal(t, uint32(1), stored.ApproveThreshold, "threshold not filled from approved members")

	err = a.SetStatus("applicant", Approved, hashOf(3))
	assert.Equal(t, fault.ErrApprovalBelowThreshold, err, "approved without votes")

	_, err = a.Tally("applicant", true, hashOf(3))
	require.Nil(t, err, "tally error")
	require.Nil(t, a.SetStatus("applicant", Approved, hashOf(4)), "approve error")

	// two members now, so a majority is two votes
	require.Nil(t, a.Put(pendingAlliance("second", 0)), "put error")
	stored, _ = a.Get("second")
	assert.Equal(t, uint32(2), stored.ApproveThreshold, "threshold ignores new member")

	// an explicit threshold is kept
	require.Nil(t, a.Put(pendingAlliance("third", 5)), "put error")
	stored, _ = a.Get("third")
	assert.Equal(t, uint32(5), stored.ApproveThreshold, "explicit threshold replaced")
}

func TestAllianceFieldLength(t *testing.T) {
	a := setupTestAlliances(t)
	defer a.Close()

	p := pendingAlliance("applicant", 1)
	p.Data = strings.Repeat("d", util.MaxFieldLength)
	require.Nil(t, a.Put(p), "longest field rejected")

	stored, err := a.Get("applicant")
	require.Nil(t, err, "get error")
	assert.Equal(t, p.Data, stored.Data, "longest field did not read back")

	bad := pendingAlliance("other", 1)
	bad.Name = strings.Repeat("n", util.MaxFieldLength+1)
	assert.Equal(t, fault.ErrFieldTooLong, a.Put(bad), "over-long name accepted")
	found, _ := a.Has("other")
	assert.False(t, found, "rejected alliance stored")

	stored.URL = strings.Repeat("u", util.MaxFieldLength+1)
	assert.Equal(t, fault.ErrFieldTooLong, a.Update(stored), "over-long url accepted")

	all, err := a.All()
	assert.Nil(t, err, "all error")
	assert.Equal(t, 2, len(all), "wrong alliance count")
}

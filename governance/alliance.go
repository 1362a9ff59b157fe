// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package governance

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/util"
)

// Status - alliance membership state
type Status uint8

// membership states, values as stored
const (
	Approved Status = 0
	Pending  Status = 1
	Rejected Status = 2
)

// record format of a packed alliance
const allianceVersion = 1

// String - status name
func (s Status) String() string {
	switch s {
	case Approved:
		return "approved"
	case Pending:
		return "pending"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MarshalText - status name for JSON
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Alliance - one alliance member or applicant
type Alliance struct {
	Address          string        `json:"address"`
	Name             string        `json:"name"`
	URL              string        `json:"url"`
	Data             string        `json:"data"`
	TxID             digest.Digest `json:"txId"`
	CreationBlock    digest.Digest `json:"creationBlock"`
	UpdateBlock      digest.Digest `json:"updateBlock"`
	Status           Status        `json:"status"`
	ApproveThreshold uint32        `json:"approveThreshold"`
	ApproveCount     uint32        `json:"approveCount"`
	RejectCount      uint32        `json:"rejectCount"`
}

func (a *Alliance) checkFields() error {
	return util.CheckFields(a.Address, a.Name, a.URL, a.Data)
}

// Pack - encode an alliance as a versioned record
func (a *Alliance) Pack() []byte {
	buffer := []byte{allianceVersion}
	buffer = util.AppendString(buffer, a.Address)
	buffer = util.AppendString(buffer, a.Name)
	buffer = util.AppendString(buffer, a.URL)
	buffer = util.AppendString(buffer, a.Data)
	buffer = append(buffer, a.TxID[:]...)
	buffer = append(buffer, a.CreationBlock[:]...)
	buffer = append(buffer, a.UpdateBlock[:]...)
	buffer = util.AppendUint64(buffer, uint64(a.Status))
	buffer = util.AppendUint64(buffer, uint64(a.ApproveThreshold))
	buffer = util.AppendUint64(buffer, uint64(a.ApproveCount))
	buffer = util.AppendUint64(buffer, uint64(a.RejectCount))
	return buffer
}

// UnpackAlliance - decode a record produced by Pack
func UnpackAlliance(record []byte) (*Alliance, error) {
	if 0 == len(record) || allianceVersion != record[0] {
		return nil, fault.ErrNotAllianceRecord
	}

	r := util.NewRecordReader(record[1:])
	a := &Alliance{}
	a.Address = r.Text()
	a.Name = r.Text()
	a.URL = r.Text()
	a.Data = r.Text()
	copy(a.TxID[:], r.Fixed(digest.Length))
	copy(a.CreationBlock[:], r.Fixed(digest.Length))
	copy(a.UpdateBlock[:], r.Fixed(digest.Length))
	a.Status = Status(r.Uint64())
	a.ApproveThreshold = uint32(r.Uint64())
	a.ApproveCount = uint32(r.Uint64())
	a.RejectCount = uint32(r.Uint64())

	if nil != r.Err() || 0 != r.Remaining() || a.Status > Rejected {
		return nil, fault.ErrNotAllianceRecord
	}
	return a, nil
}

// Alliances - the alliance database
//
// the founding alliance (the exodus address) is implied and always approved
type Alliances struct {
	base
	founder Alliance
}

// OpenAlliances - open the alliance database
func OpenAlliances(path string, wipe bool, exodus string) (*Alliances, error) {
	a := &Alliances{
		founder: Alliance{
			Address: exodus,
			Name:    "founding alliance",
			Status:  Approved,
		},
	}
	if err := a.open(path, wipe, "alliance", alliancePrefix); nil != err {
		return nil, err
	}
	return a, nil
}

func (a *Alliances) get(address string) (*Alliance, error) {
	if address == a.founder.Address {
		f := a.founder
		return &f, nil
	}

	packed, err := a.pool.Get([]byte(address))
	if nil != err {
		return nil, err
	}
	if nil == packed {
		return nil, fault.ErrAllianceNotFound
	}
	return UnpackAlliance(packed)
}

func (a *Alliances) put(alliance *Alliance) error {
	return a.pool.Put([]byte(alliance.Address), alliance.Pack())
}

// Put - add a new alliance
func (a *Alliances) Put(alliance *Alliance) error {
	if alliance.Status > Rejected {
		return fault.ErrInvalidStatus
	}

	if err := alliance.checkFields(); nil != err {
		return err
	}

	a.Lock()
	defer a.Unlock()

	if alliance.Address == a.founder.Address {
		return fault.ErrAllianceExists
	}
	found, err := a.pool.Has([]byte(alliance.Address))
	if nil != err {
		return err
	}
	if found {
		return fault.ErrAllianceExists
	}

	stored := *alliance
	if Pending == stored.Status && 0 == stored.ApproveThreshold {
		threshold, err := a.approveThreshold()
		if nil != err {
			return err
		}
		stored.ApproveThreshold = threshold
	}

	a.log.Debugf("put: %s  name: %q  status: %s  threshold: %d", stored.Address, stored.Name, stored.Status, stored.ApproveThreshold)
	return a.put(&stored)
}

// Update - overwrite an existing alliance
func (a *Alliances) Update(alliance *Alliance) error {
	if alliance.Status > Rejected {
		return fault.ErrInvalidStatus
	}
	if err := alliance.checkFields(); nil != err {
		return err
	}

	a.Lock()
	defer a.Unlock()

	if alliance.Address == a.founder.Address {
		return fault.ErrImpliedAlliance
	}
	found, err := a.pool.Has([]byte(alliance.Address))
	if nil != err {
		return err
	}
	if !found {
		return fault.ErrAllianceNotFound
	}

	a.log.Debugf("update: %s  status: %s", alliance.Address, alliance.Status)
	return a.put(alliance)
}

// Get - read an alliance
func (a *Alliances) Get(address string) (*Alliance, error) {
	a.RLock()
	defer a.RUnlock()

	return a.get(address)
}

// Has - check if an alliance exists
func (a *Alliances) Has(address string) (bool, error) {
	if address == a.founder.Address {
		return true, nil
	}

	a.RLock()
	defer a.RUnlock()

	return a.pool.Has([]byte(address))
}

// Delete - remove an alliance
func (a *Alliances) Delete(address string) error {
	a.Lock()
	defer a.Unlock()

	if address == a.founder.Address {
		return fault.ErrImpliedAlliance
	}
	found, err := a.pool.Has([]byte(address))
	if nil != err {
		return err
	}
	if !found {
		return fault.ErrAllianceNotFound
	}

	a.log.Debugf("delete: %s", address)
	return a.pool.Delete([]byte(address))
}

// All - every alliance, founder first then in address order
func (a *Alliances) All() ([]Alliance, error) {
	a.RLock()
	defer a.RUnlock()

	return a.all(func(*Alliance) bool { return true })
}

// Approved - every approved alliance, founder first
func (a *Alliances) Approved() ([]Alliance, error) {
	a.RLock()
	defer a.RUnlock()

	return a.all(func(alliance *Alliance) bool { return Approved == alliance.Status })
}

func (a *Alliances) all(match func(*Alliance) bool) ([]Alliance, error) {
	result := []Alliance{a.founder}
	err := a.pool.Map(func(key []byte, value []byte) error {
		alliance, err := UnpackAlliance(value)
		if nil != err {
			return err
		}
		if match(alliance) {
			result = append(result, *alliance)
		}
		return nil
	})
	return result, err
}

// IsApproved - true for a member alliance
func (a *Alliances) IsApproved(address string) (bool, error) {
	a.RLock()
	defer a.RUnlock()

	alliance, err := a.get(address)
	if fault.ErrAllianceNotFound == err {
		return false, nil
	}
	if nil != err {
		return false, err
	}
	return Approved == alliance.Status, nil
}

// ApproveThreshold - votes needed to approve a new alliance: a simple
// majority of the approved alliances
func (a *Alliances) ApproveThreshold() (uint32, error) {
	a.RLock()
	defer a.RUnlock()

	return a.approveThreshold()
}

// caller must hold the lock
func (a *Alliances) approveThreshold() (uint32, error) {
	approved, err := a.all(func(alliance *Alliance) bool { return Approved == alliance.Status })
	if nil != err {
		return 0, err
	}
	return uint32(len(approved))/2 + 1, nil
}

// Tally - count one vote for a pending alliance
//
// the status is not changed
func (a *Alliances) Tally(address string, approve bool, block digest.Digest) (*Alliance, error) {
	a.Lock()
	defer a.Unlock()

	if address == a.founder.Address {
		return nil, fault.ErrImpliedAlliance
	}
	alliance, err := a.get(address)
	if nil != err {
		return nil, err
	}
	if Pending != alliance.Status {
		return nil, fault.ErrInvalidStatusTransition
	}

	if approve {
		alliance.ApproveCount += 1
	} else {
		alliance.RejectCount += 1
	}
	alliance.UpdateBlock = block

	a.log.Debugf("tally: %s  approve: %d  reject: %d", address, alliance.ApproveCount, alliance.RejectCount)
	return alliance, a.put(alliance)
}

// SetStatus - record a governance decision on a pending alliance
//
// approval needs at least the recorded threshold of approve votes
func (a *Alliances) SetStatus(address string, status Status, block digest.Digest) error {
	if status > Rejected {
		return fault.ErrInvalidStatus
	}

	a.Lock()
	defer a.Unlock()

	if address == a.founder.Address {
		return fault.ErrImpliedAlliance
	}
	alliance, err := a.get(address)
	if nil != err {
		return err
	}
	if Pending != alliance.Status || Pending == status {
		return fault.ErrInvalidStatusTransition
	}
	if Approved == status && alliance.ApproveCount < alliance.ApproveThreshold {
		return fault.ErrApprovalBelowThreshold
	}

	alliance.Status = status
	alliance.UpdateBlock = block

	a.log.Infof("status: %s  %s", address, status)
	return a.put(alliance)
}

// PrintAll - write every alliance as one JSON object per line
func (a *Alliances) PrintAll(w io.Writer) error {
	all, err := a.All()
	if nil != err {
		return err
	}
	encoder := json.NewEncoder(w)
	for _, alliance := range all {
		if err := encoder.Encode(alliance); nil != err {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "# alliances: %d\n", len(all))
	return err
}

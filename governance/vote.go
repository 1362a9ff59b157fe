// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package governance

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/util"
)

// VoteKey - who voted, on what kind of proposal, for which target
type VoteKey struct {
	Address string `json:"address"`
	Type    uint32 `json:"type"`
	Target  string `json:"target"`
}

// Vote - the current choice of one voter
type Vote struct {
	VoteKey
	Option string `json:"option"`
}

// count-prefixed address and target so the key can be decoded
func (k VoteKey) bytes() []byte {
	buffer := util.AppendString(nil, k.Address)
	buffer = util.AppendUint64(buffer, uint64(k.Type))
	return util.AppendString(buffer, k.Target)
}

func (k VoteKey) checkFields(option string) error {
	return util.CheckFields(k.Address, k.Target, option)
}

func voteKeyFromBytes(buffer []byte) (VoteKey, error) {
	r := util.NewRecordReader(buffer)
	k := VoteKey{
		Address: r.Text(),
		Type:    uint32(r.Uint64()),
		Target:  r.Text(),
	}
	if nil != r.Err() || 0 != r.Remaining() {
		return VoteKey{}, fault.ErrNotStoredRecord
	}
	return k, nil
}

// Votes - the vote record database
type Votes struct {
	base
}

// OpenVotes - open the vote record database
func OpenVotes(path string, wipe bool) (*Votes, error) {
	v := &Votes{}
	if err := v.open(path, wipe, "votes", votePrefix); nil != err {
		return nil, err
	}
	return v, nil
}

// Put - record a first vote
func (v *Votes) Put(key VoteKey, option string) error {
	if err := key.checkFields(option); nil != err {
		return err
	}

	v.Lock()
	defer v.Unlock()

	k := key.bytes()
	found, err := v.pool.Has(k)
	if nil != err {
		return err
	}
	if found {
		return fault.ErrVoteRecordExists
	}

	v.log.Debugf("put: %s  type: %d  target: %q  option: %q", key.Address, key.Type, key.Target, option)
	return v.pool.Put(k, []byte(option))
}

// Update - change an existing vote
func (v *Votes) Update(key VoteKey, option string) error {
	if err := key.checkFields(option); nil != err {
		return err
	}

	v.Lock()
	defer v.Unlock()

	k := key.bytes()
	found, err := v.pool.Has(k)
	if nil != err {
		return err
	}
	if !found {
		return fault.ErrVoteRecordNotFound
	}

	v.log.Debugf("update: %s  type: %d  target: %q  option: %q", key.Address, key.Type, key.Target, option)
	return v.pool.Put(k, []byte(option))
}

// Get - the current choice of a voter
func (v *Votes) Get(key VoteKey) (string, error) {
	v.RLock()
	defer v.RUnlock()

	value, err := v.pool.Get(key.bytes())
	if nil != err {
		return "", err
	}
	if nil == value {
		return "", fault.ErrVoteRecordNotFound
	}
	return string(value), nil
}

// Has - check if a vote exists
func (v *Votes) Has(key VoteKey) (bool, error) {
	v.RLock()
	defer v.RUnlock()

	return v.pool.Has(key.bytes())
}

// Delete - remove a vote
func (v *Votes) Delete(key VoteKey) error {
	v.Lock()
	defer v.Unlock()

	k := key.bytes()
	found, err := v.pool.Has(k)
	if nil != err {
		return err
	}
	if !found {
		return fault.ErrVoteRecordNotFound
	}
	return v.pool.Delete(k)
}

// All - every vote in key order
func (v *Votes) All() ([]Vote, error) {
	v.RLock()
	defer v.RUnlock()

	votes := []Vote{}
	err := v.pool.Map(func(key []byte, value []byte) error {
		k, err := voteKeyFromBytes(key)
		if nil != err {
			return err
		}
		votes = append(votes, Vote{VoteKey: k, Option: string(value)})
		return nil
	})
	return votes, err
}

// PrintAll - write every vote as one JSON object per line
func (v *Votes) PrintAll(w io.Writer) error {
	votes, err := v.All()
	if nil != err {
		return err
	}
	encoder := json.NewEncoder(w)
	for _, vote := range votes {
		if err := encoder.Encode(vote); nil != err {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "# votes: %d\n", len(votes))
	return err
}

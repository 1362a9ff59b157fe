// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property

import (
	"bytes"
	"sort"

	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/util"
)

// Ecosystem - identifier namespace of a property
type Ecosystem uint8

// the two ecosystems
const (
	Main Ecosystem = 1
	Test Ecosystem = 2
)

// Kind - token divisibility
type Kind uint16

// property kinds
const (
	Indivisible Kind = 1
	Divisible   Kind = 2
)

// reserved and initial identifiers
const (
	ImpliedMainID uint32 = 1
	ImpliedTestID uint32 = 2
	FirstMainID   uint32 = 3
	FirstTestID   uint32 = 0x80000003
)

// record format of a packed entry
const entryVersion = 1

// HistoryEntry - one contribution (or grant) recorded against a property
type HistoryEntry struct {
	Amount       int64 `json:"amount"`
	Deadline     int64 `json:"deadline"`
	UserTokens   int64 `json:"userTokens"`
	IssuerTokens int64 `json:"issuerTokens"`
}

// Entry - the stored state of one smart property
type Entry struct {
	Issuer      string `json:"issuer"`
	Kind        Kind   `json:"kind"`
	ParentID    uint32 `json:"parentId"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Data        string `json:"data"`
	NumTokens   int64  `json:"numTokens"`

	// crowdsale terms
	DesiredProperty  uint32 `json:"desiredProperty"`
	Deadline         int64  `json:"deadline"`
	EarlyBirdPercent uint8  `json:"earlyBird"`
	IssuerPercent    uint8  `json:"issuerPercent"`
	Rate             int64  `json:"rate"`
	MaxTokens        int64  `json:"maxTokens"`
	StartTime        int64  `json:"startTime"`

	// crowdsale close-out
	CloseEarly       bool          `json:"closeEarly"`
	MaxTokensReached bool          `json:"maxTokensReached"`
	MissedTokens     int64         `json:"missedTokens"`
	TimeClosed       int64         `json:"timeClosed"`
	CloseTxID        digest.Digest `json:"closeTxId"`

	// provenance
	TxID          digest.Digest `json:"txId"`
	CreationBlock digest.Digest `json:"creationBlock"`
	UpdateBlock   digest.Digest `json:"updateBlock"`
	Fixed         bool          `json:"fixed"`
	Manual        bool          `json:"manual"`

	History map[digest.Digest]HistoryEntry `json:"history,omitempty"`

	// license governance
	ApproveThreshold uint16 `json:"approveThreshold"`
	ApproveCount     uint16 `json:"approveCount"`
	RejectCount      uint16 `json:"rejectCount"`
	MoneyApplication uint32 `json:"moneyApplication"`
}

// EcosystemOf - the ecosystem that issued an id
func EcosystemOf(id uint32) Ecosystem {
	if ImpliedTestID == id || id >= FirstTestID {
		return Test
	}
	return Main
}

// IsImplied - true for the base token ids that are never stored
func IsImplied(id uint32) bool {
	return ImpliedMainID == id || ImpliedTestID == id
}

// String - ecosystem name
func (e Ecosystem) String() string {
	switch e {
	case Main:
		return "main"
	case Test:
		return "test"
	default:
		return "unknown"
	}
}

func (e Ecosystem) valid() bool {
	return Main == e || Test == e
}

// IsDivisible - tokens have eight decimal places
func (e *Entry) IsDivisible() bool {
	return Divisible == e.Kind
}

// IsCrowdsale - issuance is by crowdsale rather than fixed or managed
func (e *Entry) IsCrowdsale() bool {
	return !e.Fixed && !e.Manual
}

// SortedHistory - transaction ids of the history in byte order
func (e *Entry) SortedHistory() []digest.Digest {
	return SortedTxIDs(e.History)
}

// SortedTxIDs - keys of a ledger in byte order
func SortedTxIDs(history map[digest.Digest]HistoryEntry) []digest.Digest {
	ids := make([]digest.Digest, 0, len(history))
	for txid := range history {
		ids = append(ids, txid)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// every text field must fit the record field limit to be read back
func (e *Entry) checkFields() error {
	return util.CheckFields(e.Issuer, e.Category, e.Subcategory, e.Name, e.URL, e.Data)
}

// Pack - encode an entry as a versioned record
func (e *Entry) Pack() []byte {
	buffer := []byte{entryVersion}
	buffer = util.AppendString(buffer, e.Issuer)
	buffer = util.AppendUint64(buffer, uint64(e.Kind))
	buffer = util.AppendUint64(buffer, uint64(e.ParentID))
	buffer = util.AppendString(buffer, e.Category)
	buffer = util.AppendString(buffer, e.Subcategory)
	buffer = util.AppendString(buffer, e.Name)
	buffer = util.AppendString(buffer, e.URL)
	buffer = util.AppendString(buffer, e.Data)
	buffer = util.AppendInt64(buffer, e.NumTokens)

	buffer = util.AppendUint64(buffer, uint64(e.DesiredProperty))
	buffer = util.AppendInt64(buffer, e.Deadline)
	buffer = util.AppendUint64(buffer, uint64(e.EarlyBirdPercent))
	buffer = util.AppendUint64(buffer, uint64(e.IssuerPercent))
	buffer = util.AppendInt64(buffer, e.Rate)
	buffer = util.AppendInt64(buffer, e.MaxTokens)
	buffer = util.AppendInt64(buffer, e.StartTime)

	buffer = util.AppendBool(buffer, e.CloseEarly)
	buffer = util.AppendBool(buffer, e.MaxTokensReached)
	buffer = util.AppendInt64(buffer, e.MissedTokens)
	buffer = util.AppendInt64(buffer, e.TimeClosed)
	buffer = append(buffer, e.CloseTxID[:]...)

	buffer = append(buffer, e.TxID[:]...)
	buffer = append(buffer, e.CreationBlock[:]...)
	buffer = append(buffer, e.UpdateBlock[:]...)
	buffer = util.AppendBool(buffer, e.Fixed)
	buffer = util.AppendBool(buffer, e.Manual)

	buffer = util.AppendUint64(buffer, uint64(len(e.History)))
	for _, txid := range e.SortedHistory() {
		h := e.History[txid]
		buffer = append(buffer, txid[:]...)
		buffer = util.AppendInt64(buffer, h.Amount)
		buffer = util.AppendInt64(buffer, h.Deadline)
		buffer = util.AppendInt64(buffer, h.UserTokens)
		buffer = util.AppendInt64(buffer, h.IssuerTokens)
	}

	buffer = util.AppendUint64(buffer, uint64(e.ApproveThreshold))
	buffer = util.AppendUint64(buffer, uint64(e.ApproveCount))
	buffer = util.AppendUint64(buffer, uint64(e.RejectCount))
	buffer = util.AppendUint64(buffer, uint64(e.MoneyApplication))
	return buffer
}

// Unpack - decode a record produced by Pack
//
// an empty history decodes as a nil map
func Unpack(record []byte) (*Entry, error) {
	if 0 == len(record) || entryVersion != record[0] {
		return nil, fault.ErrNotPropertyRecord
	}

	r := util.NewRecordReader(record[1:])
	e := &Entry{}

	e.Issuer = r.Text()
	e.Kind = Kind(r.Uint64())
	e.ParentID = uint32(r.Uint64())
	e.Category = r.Text()
	e.Subcategory = r.Text()
	e.Name = r.Text()
	e.URL = r.Text()
	e.Data = r.Text()
	e.NumTokens = r.Int64()

	e.DesiredProperty = uint32(r.Uint64())
	e.Deadline = r.Int64()
	e.EarlyBirdPercent = uint8(r.Uint64())
	e.IssuerPercent = uint8(r.Uint64())
	e.Rate = r.Int64()
	e.MaxTokens = r.Int64()
	e.StartTime = r.Int64()

	e.CloseEarly = r.Bool()
	e.MaxTokensReached = r.Bool()
	e.MissedTokens = r.Int64()
	e.TimeClosed = r.Int64()
	copy(e.CloseTxID[:], r.Fixed(digest.Length))

	copy(e.TxID[:], r.Fixed(digest.Length))
	copy(e.CreationBlock[:], r.Fixed(digest.Length))
	copy(e.UpdateBlock[:], r.Fixed(digest.Length))
	e.Fixed = r.Bool()
	e.Manual = r.Bool()

	count := r.Uint64()
	if count > uint64(r.Remaining()) {
		return nil, fault.ErrNotPropertyRecord
	}
	if count > 0 {
		e.History = make(map[digest.Digest]HistoryEntry, count)
	}
	for i := uint64(0); i < count && nil == r.Err(); i += 1 {
		var txid digest.Digest
		copy(txid[:], r.Fixed(digest.Length))
		e.History[txid] = HistoryEntry{
			Amount:       r.Int64(),
			Deadline:     r.Int64(),
			UserTokens:   r.Int64(),
			IssuerTokens: r.Int64(),
		}
	}

	e.ApproveThreshold = uint16(r.Uint64())
	e.ApproveCount = uint16(r.Uint64())
	e.RejectCount = uint16(r.Uint64())
	e.MoneyApplication = uint32(r.Uint64())

	if nil != r.Err() {
		return nil, fault.ErrNotPropertyRecord
	}
	if 0 != r.Remaining() {
		return nil, fault.ErrNotPropertyRecord
	}
	return e, nil
}

// base token records for the two implied ids
func impliedEntries(exodus string) map[uint32]Entry {
	return map[uint32]Entry{
		ImpliedMainID: {
			Issuer:   exodus,
			Kind:     Divisible,
			Category: "N/A",
			Name:     "Base Token",
			Data:     "implied base token of the main ecosystem",
			Fixed:    true,
		},
		ImpliedTestID: {
			Issuer:   exodus,
			Kind:     Divisible,
			Category: "N/A",
			Name:     "Test Base Token",
			Data:     "implied base token of the test ecosystem",
			Fixed:    true,
		},
	}
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crowdsale

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/tokenledger/spstore/property"
)

const (
	// fixed-point scale of the bonus fraction
	precision = 1000000000000

	// base units of one whole divisible token
	unit = 100000000
)

// Fundraiser - the inputs for one contribution
//
// Rate is the number of new tokens (in their own base units) created
// per whole unit of the desired property. Negative values count as zero.
type Fundraiser struct {
	InflateAmount bool  // Amount is in whole units and must be scaled by 10^8
	Amount        int64 // contribution, in base units of the desired property
	BonusPercent  uint8 // early bird bonus at opening
	Duration      int64 // seconds from opening to deadline
	Elapsed       int64 // seconds from opening to this contribution
	Rate          int64
	IssuerPercent uint8
	IssuedSoFar   int64 // user plus issuer tokens already created
	MaxTokens     int64 // cap on all tokens created, zero for no cap
}

// Allocation - the tokens created by one contribution
type Allocation struct {
	UserTokens   int64
	IssuerTokens int64
	Close        bool // the crowdsale must close after this contribution
	Capped       bool // the allocation was reduced to fit the cap
}

func nonNegative(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// CalculateFundraiser - split one contribution between purchaser and issuer
//
// all arithmetic is 256 bit unsigned integer and every division
// truncates, so results are identical on every node
func CalculateFundraiser(f Fundraiser) Allocation {
	duration := nonNegative(f.Duration)
	elapsed := nonNegative(f.Elapsed)

	remaining := uint64(0)
	if elapsed < duration {
		remaining = duration - elapsed
	}

	// bonus percentage scaled by precision, decaying linearly to zero
	bonus := new(uint256.Int)
	if duration > 0 {
		bonus.Mul(uint256.NewInt(uint64(f.BonusPercent)), uint256.NewInt(precision))
		bonus.Mul(bonus, uint256.NewInt(remaining))
		bonus.Div(bonus, uint256.NewInt(duration))
	}

	created := new(uint256.Int).Mul(uint256.NewInt(nonNegative(f.Amount)), uint256.NewInt(nonNegative(f.Rate)))
	if f.InflateAmount {
		created.Mul(created, uint256.NewInt(unit))
	}

	// user = created × (100 + bonus) / (100 × unit)
	factor := new(uint256.Int).Mul(uint256.NewInt(100), uint256.NewInt(precision))
	factor.Add(factor, bonus)

	divisor := new(uint256.Int).Mul(uint256.NewInt(100*unit), uint256.NewInt(precision))

	user := new(uint256.Int).Mul(created, factor)
	user.Div(user, divisor)

	issuer := new(uint256.Int).Mul(user, uint256.NewInt(uint64(f.IssuerPercent)))
	issuer.Div(issuer, uint256.NewInt(100))

	limit := uint64(math.MaxInt64)
	if f.MaxTokens > 0 {
		limit = uint64(f.MaxTokens)
	}
	issued := nonNegative(f.IssuedSoFar)
	creatable := new(uint256.Int)
	if issued < limit {
		creatable.SetUint64(limit - issued)
	}

	total := new(uint256.Int).Add(user, issuer)

	result := Allocation{}
	if !total.Lt(creatable) {
		result.Close = true
	}
	if total.Gt(creatable) {
		// scale the issuer share down, the purchaser gets the rest
		issuer.Mul(issuer, creatable)
		issuer.Div(issuer, total)
		user.Sub(creatable, issuer)
		result.Capped = true
	}
	if duration <= elapsed {
		result.Close = true
	}

	result.UserTokens = int64(user.Uint64())
	result.IssuerTokens = int64(issuer.Uint64())
	return result
}

// MissedIssuerBonus - issuer tokens not yet created for the tokens
// purchasers received
//
// never negative
func MissedIssuerBonus(entry *property.Entry, crowd *Crowd) int64 {
	owed := new(uint256.Int).Mul(uint256.NewInt(nonNegative(crowd.UserCreated())), uint256.NewInt(uint64(entry.IssuerPercent)))
	owed.Div(owed, uint256.NewInt(100))

	created := uint256.NewInt(nonNegative(crowd.IssuerCreated()))
	if !owed.Gt(created) {
		return 0
	}
	owed.Sub(owed, created)
	return int64(owed.Uint64())
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crowdsale - live crowdsales and their token issuance
//
// The live state is held in memory only. Running totals and the
// contribution ledger are written back into the property record at
// each block boundary and when a crowdsale closes, so the live state
// can always be rebuilt from the registry.
package crowdsale

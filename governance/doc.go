// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package governance - alliance membership, vote records and
// cross-ledger transaction records
//
// Each store is a last-write-wins map in its own database with no
// block history, so a chain reorganisation must be handled by the
// caller re-deriving the records.
package governance

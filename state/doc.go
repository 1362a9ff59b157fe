// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package state - the process context owning every database
//
// the chain processor calls the hooks in block order:
//
//   CreateProperty, OpenCrowdsale, Purchase, CloseCrowdsale  (per transaction)
//   EndBlock                                                 (per block)
//   Rollback                                                 (on reorganisation)
//
// and Resume once at start up to find the block to continue from
package state

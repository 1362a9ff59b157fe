// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain an on-disk ordered key/value store
//
// Each Store is one LevelDB database at its own path, split into a
// series of tables (pools). A pool is defined by a single prefix byte
// that is prepended to every key, so iteration over a pool is a
// bounded range scan.
//
// Notes:
// 1. each separate pool has a single byte prefix
// 2. ++           = concatenation of byte data
// 3. property id  = big endian uint32 (4 bytes)
// 4. digest       = block hash or txid, 32 bytes little endian
// 5. *others*     = byte values of various length
//
// Property registry:
//
//   B                          - watermark
//                                data: digest of last fully processed block
//   s ++ property id           - current property record
//                                data: packed property entry
//   t ++ creation txid         - reverse index
//                                data: property id
//   b ++ block hash ++ id      - snapshot of the record before the block changed it
//                                data: packed property entry
//   n ++ ecosystem             - next property id
//                                data: big endian uint32
//
// Governance (one database each):
//
//   a ++ address               - alliance entry
//   v ++ address ++ type ++ target
//                              - vote record, data: chosen option
//   x ++ address ++ property id
//                              - cross-ledger transaction id
//
// Reads verify block checksums. Iteration verifies checksums but does
// not fill the block cache. Writes are buffered unless a sync variant
// is used; a sync write also makes every earlier buffered write durable.
package storage

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package property - the smart property registry
//
// Every property record is stored under its id. A record that a block
// changes is first copied under the block hash, so the block can later
// be popped and the previous state restored. The watermark records the
// last block whose changes are completely on disk.
package property

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Each class of failure has its own string type so a caller can tell
// a missing record (NotFoundError) from a corrupt one (RecordError)
// or a storage fault (ProcessError) without matching on text.
package fault

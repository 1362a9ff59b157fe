// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokenledger/spstore/fault"
	"github.com/tokenledger/spstore/util"
)

func TestRecordReader(t *testing.T) {
	record := util.AppendUint64(nil, 300)
	record = util.AppendInt64(record, -42)
	record = util.AppendString(record, "name")
	record = util.AppendString(record, "")
	record = util.AppendBool(record, true)
	record = append(record, 0xaa, 0xbb)

	r := util.NewRecordReader(record)
	assert.Equal(t, uint64(300), r.Uint64(), "wrong uint64")
	assert.Equal(t, int64(-42), r.Int64(), "wrong int64")
	assert.Equal(t, "name", r.Text(), "wrong string")
	assert.Equal(t, "", r.Text(), "wrong empty string")
	assert.True(t, r.Bool(), "wrong bool")
	assert.Equal(t, []byte{0xaa, 0xbb}, r.Fixed(2), "wrong fixed")
	assert.Nil(t, r.Err(), "unexpected error")
	assert.Equal(t, 0, r.Remaining(), "bytes left over")
}

func TestRecordReaderTruncated(t *testing.T) {
	record := util.AppendString(nil, "truncated")

	r := util.NewRecordReader(record[:4])
	s := r.Text()
	assert.Equal(t, "", s, "truncated string returned data")
	assert.Equal(t, fault.ErrNotStoredRecord, r.Err(), "wrong error")

	// error is latched
	r.Uint64()
	assert.Equal(t, fault.ErrNotStoredRecord, r.Err(), "error was not latched")
}

func TestRecordReaderBadBool(t *testing.T) {
	r := util.NewRecordReader([]byte{0x02})
	r.Bool()
	assert.Equal(t, fault.ErrNotStoredRecord, r.Err(), "invalid flag byte accepted")
}

func TestRecordFieldLimit(t *testing.T) {
	longest := string(make([]byte, util.MaxFieldLength))
	assert.Nil(t, util.CheckFields("a", longest), "longest field rejected")

	r := util.NewRecordReader(util.AppendString(nil, longest))
	assert.Equal(t, longest, r.Text(), "longest field did not read back")
	assert.Nil(t, r.Err(), "unexpected error")

	tooLong := longest + "x"
	assert.Equal(t, fault.ErrFieldTooLong, util.CheckFields("a", tooLong), "over-long field accepted")

	r = util.NewRecordReader(util.AppendString(nil, tooLong))
	r.Text()
	assert.Equal(t, fault.ErrNotStoredRecord, r.Err(), "over-long field was readable")
}

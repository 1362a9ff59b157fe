// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"github.com/tokenledger/spstore/fault"
)

// MaxFieldLength - maximum length of any byte or string field in a
// stored record
const MaxFieldLength = 65535

// CheckFields - reject any field that RecordReader would not read back
func CheckFields(fields ...string) error {
	for _, f := range fields {
		if len(f) > MaxFieldLength {
			return fault.ErrFieldTooLong
		}
	}
	return nil
}

// AppendUint64 - append a Varint64 to a record
func AppendUint64(buffer []byte, value uint64) []byte {
	return append(buffer, ToVarint64(value)...)
}

// AppendInt64 - append a zig-zag Varint64 to a record
func AppendInt64(buffer []byte, value int64) []byte {
	return append(buffer, ToSignedVarint64(value)...)
}

// AppendBool - append a single 0x00/0x01 byte
func AppendBool(buffer []byte, value bool) []byte {
	if value {
		return append(buffer, 0x01)
	}
	return append(buffer, 0x00)
}

// AppendBytes - append a count-prefixed byte field
func AppendBytes(buffer []byte, data []byte) []byte {
	buffer = AppendUint64(buffer, uint64(len(data)))
	return append(buffer, data...)
}

// AppendString - append a count-prefixed string field
func AppendString(buffer []byte, s string) []byte {
	return AppendBytes(buffer, []byte(s))
}

// RecordReader - sequential field reader over a packed record
//
// the first decoding failure is latched, so a series of reads can be
// checked once with Err()
type RecordReader struct {
	buffer []byte
	n      int
	err    error
}

// NewRecordReader - start reading at the beginning of a record
func NewRecordReader(buffer []byte) *RecordReader {
	return &RecordReader{buffer: buffer}
}

// Err - first error encountered
func (r *RecordReader) Err() error {
	return r.err
}

// Remaining - number of unread bytes
func (r *RecordReader) Remaining() int {
	return len(r.buffer) - r.n
}

// Uint64 - read a Varint64
func (r *RecordReader) Uint64() uint64 {
	if nil != r.err {
		return 0
	}
	value, count := FromVarint64(r.buffer[r.n:])
	if 0 == count {
		r.err = fault.ErrNotStoredRecord
		return 0
	}
	r.n += count
	return value
}

// Int64 - read a zig-zag Varint64
func (r *RecordReader) Int64() int64 {
	if nil != r.err {
		return 0
	}
	value, count := FromSignedVarint64(r.buffer[r.n:])
	if 0 == count {
		r.err = fault.ErrNotStoredRecord
		return 0
	}
	r.n += count
	return value
}

// Bool - read a single byte flag
func (r *RecordReader) Bool() bool {
	b := r.Fixed(1)
	if nil == b {
		return false
	}
	switch b[0] {
	case 0x00:
		return false
	case 0x01:
		return true
	default:
		r.err = fault.ErrNotStoredRecord
		return false
	}
}

// Fixed - read exactly n bytes, result is a copy
func (r *RecordReader) Fixed(n int) []byte {
	if nil != r.err {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.err = fault.ErrNotStoredRecord
		return nil
	}
	result := make([]byte, n)
	copy(result, r.buffer[r.n:r.n+n])
	r.n += n
	return result
}

// Bytes - read a count-prefixed byte field
func (r *RecordReader) Bytes() []byte {
	if nil != r.err {
		return nil
	}
	length, count := ClippedVarint64(r.buffer[r.n:], 0, MaxFieldLength)
	if 0 == count {
		r.err = fault.ErrNotStoredRecord
		return nil
	}
	r.n += count
	return r.Fixed(length)
}

// Text - read a count-prefixed string field
func (r *RecordReader) Text() string {
	return string(r.Bytes())
}

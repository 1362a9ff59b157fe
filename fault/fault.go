// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAllianceExists          = ExistsError("alliance already exists")
	ErrAllianceNotFound        = NotFoundError("alliance not found")
	ErrAlreadyInitialised      = InvalidError("already initialised")
	ErrApprovalBelowThreshold  = InvalidError("approve count is below threshold")
	ErrCrowdsaleExists         = ExistsError("crowdsale already active for address")
	ErrCrowdsaleNotFound       = NotFoundError("crowdsale not found")
	ErrDatabaseIsNotOpen       = ProcessError("database is not open")
	ErrDatabaseVersion         = RecordError("database version is newer than supported")
	ErrDuplicateTransaction    = ExistsError("transaction already created a property")
	ErrFieldTooLong            = InvalidError("field too long")
	ErrImpliedAlliance         = InvalidError("founding alliance cannot be modified")
	ErrImpliedProperty         = InvalidError("implied property cannot be modified")
	ErrInvalidCount            = InvalidError("invalid count")
	ErrInvalidCursor           = InvalidError("invalid cursor")
	ErrInvalidDigestLength     = RecordError("invalid digest length")
	ErrInvalidEcosystem        = InvalidError("invalid ecosystem")
	ErrInvalidPropertyID       = InvalidError("invalid property id")
	ErrInvalidStatus           = InvalidError("invalid alliance status")
	ErrInvalidStatusTransition = InvalidError("invalid alliance status transition")
	ErrInvalidStructPointer    = InvalidError("invalid struct pointer")
	ErrMissingConfiguration    = InvalidError("missing configuration")
	ErrMissingSnapshot         = ProcessError("missing block snapshot for property")
	ErrNotAllianceRecord       = RecordError("not an alliance record")
	ErrNotPropertyRecord       = RecordError("not a property record")
	ErrNotStoredRecord         = RecordError("not a stored record")
	ErrPropertyNotCrowdsale    = InvalidError("property is not a crowdsale")
	ErrPropertyNotFound        = NotFoundError("property not found")
	ErrTransactionInUse        = ProcessError("transaction already in use")
	ErrTxRecordExists          = ExistsError("cross-ledger transaction record already exists")
	ErrTxRecordNotFound        = NotFoundError("cross-ledger transaction record not found")
	ErrVoteRecordExists        = ExistsError("vote record already exists")
	ErrVoteRecordNotFound      = NotFoundError("vote record not found")
	ErrWatermarkNotFound       = NotFoundError("watermark not found")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrRecord(e error) bool   { _, ok := e.(RecordError); return ok }

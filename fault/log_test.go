// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenledger/spstore/fault"
)

const testingDirName = "testing"

// Test main entrypoint
func TestMain(m *testing.M) {
	_ = os.RemoveAll(testingDirName)
	_ = os.Mkdir(testingDirName, 0o700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}

	// start logging
	_ = logger.Initialise(logging)

	result := m.Run()

	logger.Finalise()
	_ = os.RemoveAll(testingDirName)
	os.Exit(result)
}

func TestCriticalfToLog(t *testing.T) {
	require.Nil(t, fault.Initialise(), "initialise error")
	assert.Equal(t, fault.ErrAlreadyInitialised, fault.Initialise(), "second initialise")

	fault.Criticalf("missing record: %d", 42)
	fault.Finalise()

	info, err := os.Stat(filepath.Join(testingDirName, "testing.log"))
	require.Nil(t, err, "log file missing")
	assert.True(t, info.Size() > 0, "nothing logged")

	// finalise releases the channel so it can be set up again
	require.Nil(t, fault.Initialise(), "initialise after finalise")
	fault.Finalise()
}

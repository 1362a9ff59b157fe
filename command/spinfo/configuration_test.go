// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenledger/spstore/state"
)

func TestGetConfigurationSample(t *testing.T) {
	sample, err := ioutil.ReadFile("spinfo.conf.sample")
	require.Nil(t, err, "read sample error")

	fileName := writeConfig(t, "sample", string(sample))
	dir, err := filepath.Abs(filepath.Dir(fileName))
	require.Nil(t, err, "abs error")

	options, err := getConfiguration(fileName)
	require.Nil(t, err, "configuration error")

	assert.Equal(t, dir, options.DataDirectory, "wrong data directory")
	assert.Equal(t, filepath.Join(dir, "data"), options.Database.Directory, "wrong database directory")
	assert.Equal(t, filepath.Join(dir, "log"), options.Logging.Directory, "wrong log directory")
	assert.Equal(t, state.DefaultRegistry, options.Database.Registry, "wrong registry")
	assert.Equal(t, state.DefaultTxRecords, options.Database.TxRecords, "wrong tx records")
	assert.Equal(t, "EXODUS-ADDRESS", options.Database.Exodus, "wrong exodus")
	assert.False(t, options.Database.Wipe, "wipe set")
	assert.Equal(t, defaultLogFile, options.Logging.File, "wrong log file")
	assert.Equal(t, "info", options.Logging.Levels["DEFAULT"], "wrong default level")
}

func TestGetConfigurationDefaults(t *testing.T) {
	fileName := writeConfig(t, "defaults", `
return {
    data_directory = arg["config_directory"],
    database = {
        exodus = "founder",
    },
}
`)
	dir, err := filepath.Abs(filepath.Dir(fileName))
	require.Nil(t, err, "abs error")

	options, err := getConfiguration(fileName)
	require.Nil(t, err, "configuration error")

	assert.Equal(t, dir, options.DataDirectory, "wrong data directory")
	assert.Equal(t, filepath.Join(dir, defaultDatabaseDirectory), options.Database.Directory, "wrong database directory")
	assert.Equal(t, state.DefaultAlliance, options.Database.Alliance, "default replaced")
	assert.Equal(t, "founder", options.Database.Exodus, "wrong exodus")
}

func TestGetConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no-directory", `return { database = { exodus = "x" } }`},
		{"missing-directory", `return { data_directory = "/no/such/directory", database = { exodus = "x" } }`},
		{"no-exodus", `return { data_directory = "." }`},
		{"path-as-name", `return { data_directory = ".", database = { exodus = "x", votes = "a/votes.leveldb" } }`},
		{"not-a-table", `return 1`},
	}

	for _, test := range tests {
		fileName := writeConfig(t, test.name, test.content)
		_, err := getConfiguration(fileName)
		assert.NotNil(t, err, "%s: expected error", test.name)
	}
}

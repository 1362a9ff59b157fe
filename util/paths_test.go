// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokenledger/spstore/util"
)

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/data/registry.leveldb", util.EnsureAbsolute("/data", "registry.leveldb"), "relative not joined")
	assert.Equal(t, "/other/votes.leveldb", util.EnsureAbsolute("/data", "/other/./votes.leveldb"), "absolute changed")
	assert.Equal(t, "/data/log", util.EnsureAbsolute("/data/", "log/"), "not cleaned")
}

func TestIsPlainName(t *testing.T) {
	tests := []struct {
		name  string
		plain bool
	}{
		{"registry.leveldb", true},
		{"spinfo.log", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/votes.leveldb", false},
		{"/abs/file", false},
	}

	for _, test := range tests {
		assert.Equal(t, test.plain, util.IsPlainName(test.name), "name: %q", test.name)
	}
}

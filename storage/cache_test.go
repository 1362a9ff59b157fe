// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setupTestCache() Cache {
	return newCache()
}

func TestWriteThenRead(t *testing.T) {
	cache := setupTestCache()

	key := "test"
	expected := []byte{'a', 'b', 'c', 'd'}

	actual, found := cache.Get(key)
	assert.False(t, found, "key already exists with value: %v", actual)

	cache.Set(dbPut, key, expected)
	actual, found = cache.Get(key)
	assert.True(t, found, "key not found")
	assert.Equal(t, expected, actual, "wrong value")
}

func TestClear(t *testing.T) {
	cache := setupTestCache()

	key := "test"
	data := []byte{'a', 'b', 'c', 'd'}

	cache.Set(dbPut, key, data)
	cache.Clear()

	_, found := cache.Get(key)
	assert.False(t, found, "Clear did not empty the cache")
}

func TestReadDeleteOperation(t *testing.T) {
	cache := setupTestCache()

	key := "test"
	data := []byte{'a', 'b', 'c', 'd'}

	cache.Set(dbPut, key, data)
	cache.Set(dbDelete, key, nil)

	actual, found := cache.Get(key)
	assert.True(t, found, "pending delete should be found")
	assert.Nil(t, actual, "pending delete should have no value")
}

func TestReadEmptyValue(t *testing.T) {
	cache := setupTestCache()

	cache.Set(dbPut, "empty", nil)

	actual, found := cache.Get("empty")
	assert.True(t, found, "empty value not found")
	assert.NotNil(t, actual, "empty value must not read as deleted")
	assert.Equal(t, 0, len(actual), "wrong length")
}

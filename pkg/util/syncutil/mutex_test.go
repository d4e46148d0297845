// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package syncutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRWMutexReadersShare(t *testing.T) {
	var mu RWMutex
	var wg sync.WaitGroup
	counter := 0

	mu.Lock()
	counter++
	mu.Unlock()

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.RLock()
			defer mu.RUnlock()
			assert.Equal(t, 1, counter)
		}()
	}
	wg.Wait()
}

func TestMutex(t *testing.T) {
	var mu Mutex
	var wg sync.WaitGroup
	n := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			n++
		}()
	}
	wg.Wait()
	require.Equal(t, 16, n)
}

// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolReadFrom(t *testing.T) {
	buf := Default.Get()
	defer func() {
		buf.Reset()
		Default.Put(buf)
	}()

	n, err := buf.ReadFrom(strings.NewReader("upload response body"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("upload response body")), n)
	assert.Equal(t, "upload response body", string(buf.Bytes()))
}

func TestDefaultPoolReuse(t *testing.T) {
	buf := Default.Get()
	_, err := buf.WriteString("first use")
	require.NoError(t, err)
	buf.Reset()
	Default.Put(buf)

	buf = Default.Get()
	assert.Empty(t, buf.Bytes(), "pooled buffer must come back empty")
	buf.Reset()
	Default.Put(buf)
}

func TestDefaultPoolConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := Default.Get()
				_, _ = buf.WriteString("x")
				_ = buf.WriteByte('y')
				buf.Reset()
				Default.Put(buf)
			}
		}()
	}
	wg.Wait()
}

package benchmark

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPerItem(t *testing.T) {
	r := Report{Elapsed: 1500 * time.Millisecond, Count: 1000, Repeat: 3, Allocated: 6000}

	us, ok := r.MicrosPerItem()
	require.True(t, ok)
	assert.InDelta(t, 500.0, us, 1e-9)

	d, ok := r.PerItem()
	require.True(t, ok)
	assert.Equal(t, 500*time.Microsecond, d)

	b, ok := r.AllocPerItem()
	require.True(t, ok)
	assert.InDelta(t, 2.0, b, 1e-9)
}

func TestReportPerItemUndefinedForZeroItems(t *testing.T) {
	for _, r := range []Report{
		{Elapsed: time.Second, Count: 0, Repeat: 50},
		{Elapsed: time.Second, Count: 10, Repeat: 0},
	} {
		_, ok := r.MicrosPerItem()
		assert.False(t, ok)
		_, ok = r.PerItem()
		assert.False(t, ok)
		_, ok = r.AllocPerItem()
		assert.False(t, ok)
	}
}

func TestReportWrite(t *testing.T) {
	r := Report{
		Elapsed:   1500 * time.Millisecond,
		Count:     1000,
		Repeat:    3,
		Allocated: 6000,
		HeapInUse: 2 * 1024 * 1024,
	}

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Equal(t,
		"1,500.00 ms, 1,000 x 3\n"+
			"500.00 μs per item\n"+
			"Allocation: 6,000 bytes, 2.00 per item\n"+
			"Memory usage: 2.00 mb\n",
		buf.String())
}

func TestReportWriteZeroItems(t *testing.T) {
	r := Report{Elapsed: 2 * time.Millisecond, Count: 0, Repeat: 50}

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Equal(t,
		"2.00 ms, 0 x 50\n"+
			"N/A μs per item\n"+
			"Allocation: 0 bytes, N/A per item\n"+
			"Memory usage: 0.00 mb\n",
		buf.String())
}

var allocSink [][]byte

func TestMeasurement(t *testing.T) {
	m := StartMeasurement(200 * time.Millisecond)
	allocSink = nil
	for i := 0; i < 64; i++ {
		allocSink = append(allocSink, make([]byte, 1024))
	}
	r := m.Stop(len(allocSink), 1)

	assert.Equal(t, 64, r.Count)
	assert.Equal(t, 1, r.Repeat)
	assert.GreaterOrEqual(t, r.Allocated, uint64(64*1024))
	assert.Greater(t, r.HeapInUse, uint64(0))
	// the warm-up happens before the clock starts
	assert.Less(t, r.Elapsed, 200*time.Millisecond)
}

package benchmark

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// DefaultWarmUp is the pause before the timed window starts, letting
// background allocation and GC activity settle.
const DefaultWarmUp = 500 * time.Millisecond

// Measurement is the token returned by StartMeasurement and consumed by Stop.
type Measurement struct {
	start time.Time
	alloc uint64
}

// StartMeasurement sleeps for warmUp and then captures the wall clock and the
// cumulative allocated bytes of the process.
func StartMeasurement(warmUp time.Duration) Measurement {
	if warmUp > 0 {
		time.Sleep(warmUp)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Measurement{
		start: time.Now(),
		alloc: ms.TotalAlloc,
	}
}

// Stop closes the window opened by StartMeasurement.
func (m Measurement) Stop(count, repeat int) Report {
	elapsed := time.Since(m.start)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Report{
		Elapsed:   elapsed,
		Count:     count,
		Repeat:    repeat,
		Allocated: ms.TotalAlloc - m.alloc,
		HeapInUse: ms.HeapAlloc,
	}
}

// Report holds the statistics of one measured operation
type Report struct {
	Elapsed   time.Duration
	Count     int    // items handled per repetition
	Repeat    int    // number of repetitions
	Allocated uint64 // bytes allocated inside the window
	HeapInUse uint64 // live heap bytes at Stop
}

// TotalItems is Count * Repeat.
func (r Report) TotalItems() int64 {
	return int64(r.Count) * int64(r.Repeat)
}

// ElapsedMs returns the elapsed time in fractional milliseconds.
func (r Report) ElapsedMs() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// MicrosPerItem is elapsedMs * 1000 / (count * repeat). ok is false when no
// items were processed and the ratio is undefined.
func (r Report) MicrosPerItem() (us float64, ok bool) {
	total := r.TotalItems()
	if total <= 0 {
		return 0, false
	}
	return r.ElapsedMs() * 1000 / float64(total), true
}

// PerItem is MicrosPerItem as a duration.
func (r Report) PerItem() (time.Duration, bool) {
	total := r.TotalItems()
	if total <= 0 {
		return 0, false
	}
	return r.Elapsed / time.Duration(total), true
}

// AllocPerItem returns allocated bytes per item; ok is false when undefined.
func (r Report) AllocPerItem() (bytes float64, ok bool) {
	total := r.TotalItems()
	if total <= 0 {
		return 0, false
	}
	return float64(r.Allocated) / float64(total), true
}

// HeapMiB is the live heap in mebibytes.
func (r Report) HeapMiB() float64 {
	return float64(r.HeapInUse) / 1024 / 1024
}

const notAvailable = "N/A"

// Write prints the four human-readable report lines.
func (r Report) Write(w io.Writer) error {
	perItem := notAvailable
	if us, ok := r.MicrosPerItem(); ok {
		perItem = humanize.FormatFloat("#,###.##", us)
	}
	allocPerItem := notAvailable
	if b, ok := r.AllocPerItem(); ok {
		allocPerItem = humanize.FormatFloat("#,###.##", b)
	}

	_, err := fmt.Fprintf(w,
		"%s ms, %s x %d\n%s μs per item\nAllocation: %s bytes, %s per item\nMemory usage: %s mb\n",
		humanize.FormatFloat("#,###.##", r.ElapsedMs()),
		humanize.Comma(int64(r.Count)),
		r.Repeat,
		perItem,
		humanize.Comma(int64(r.Allocated)),
		allocPerItem,
		humanize.FormatFloat("#,###.##", r.HeapMiB()),
	)
	return err
}

// Log emits the report as one structured event.
func (r Report) Log(msg string) {
	event := log.Info().
		Dur("elapsed", r.Elapsed).
		Int("count", r.Count).
		Int("repeat", r.Repeat).
		Uint64("alloc_bytes", r.Allocated).
		Uint64("heap_bytes", r.HeapInUse)
	if us, ok := r.MicrosPerItem(); ok {
		event = event.Float64("us_per_item", us)
	}
	event.Msg(msg)
}

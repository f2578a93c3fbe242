// Package idgen produces unique, roughly time-ordered 63-bit identifiers
// without central coordination. An id packs 41 bits of milliseconds since
// a fixed epoch, 10 bits of worker id and a 12-bit per-millisecond
// sequence; the sign bit stays zero so ids are always positive.
package idgen

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	timestampBits = 41
	workerBits    = 10
	sequenceBits  = 12

	// MaxWorkerID is the largest worker id a generator accepts (1023).
	MaxWorkerID = (1 << workerBits) - 1

	sequenceMask = (1 << sequenceBits) - 1
	maxTimestamp = (1 << timestampBits) - 1

	workerShift    = sequenceBits
	timestampShift = sequenceBits + workerBits
)

// Epoch is the zero point of the timestamp component. 41 bits of
// milliseconds give roughly 69 years of headroom from it.
var Epoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	// ErrClockRegression is returned when the wall clock reads earlier
	// than the last id issued. Indicates clock misconfiguration; the call
	// fails rather than risking a duplicate id.
	ErrClockRegression = errors.New("clock moved backwards")

	// ErrTimestampOverflow is returned when the epoch-relative timestamp
	// no longer fits in 41 bits.
	ErrTimestampOverflow = errors.New("timestamp overflows 41 bits")

	// ErrInvalidID marks a negative id passed to a decomposition helper.
	ErrInvalidID = errors.New("invalid id")
)

// Generator issues ids for one worker. It is safe for concurrent use; the
// last-timestamp/sequence state is guarded by a mutex. Uniqueness across
// processes requires each process to be handed a distinct worker id.
type Generator struct {
	workerID int64
	now      func() time.Time

	mu     sync.Mutex
	lastTS int64
	seq    int64
}

// New returns a generator for the given worker id (0..MaxWorkerID).
func New(workerID int64) (*Generator, error) {
	return NewWithClock(workerID, time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(workerID int64, now func() time.Time) (*Generator, error) {
	if workerID < 0 || workerID > MaxWorkerID {
		return nil, fmt.Errorf("worker id %d out of range [0,%d]", workerID, MaxWorkerID)
	}
	return &Generator{workerID: workerID, now: now, lastTS: -1}, nil
}

// Next returns the next id. Within one millisecond ids differ by their
// sequence; when the 12-bit sequence is exhausted Next busy-waits for the
// clock to reach the next millisecond (bounded by millisecond
// granularity). A clock reading earlier than the previous call fails with
// ErrClockRegression.
func (g *Generator) Next() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.millis()
	switch {
	case ts < g.lastTS:
		return 0, fmt.Errorf("%w: %dms behind", ErrClockRegression, g.lastTS-ts)
	case ts == g.lastTS:
		g.seq = (g.seq + 1) & sequenceMask
		if g.seq == 0 {
			// Sequence exhausted for this millisecond.
			for ts <= g.lastTS {
				ts = g.millis()
			}
		}
	default:
		g.seq = 0
	}
	if ts > maxTimestamp {
		return 0, fmt.Errorf("%w: %dms since epoch", ErrTimestampOverflow, ts)
	}
	g.lastTS = ts
	return ts<<timestampShift | g.workerID<<workerShift | g.seq, nil
}

func (g *Generator) millis() int64 {
	return g.now().UnixMilli() - Epoch.UnixMilli()
}

// Timestamp recovers the instant an id was generated at.
func Timestamp(id int64) (time.Time, error) {
	if id < 0 {
		return time.Time{}, ErrInvalidID
	}
	ms := id >> timestampShift
	return Epoch.Add(time.Duration(ms) * time.Millisecond), nil
}

// WorkerID recovers the worker component of an id.
func WorkerID(id int64) (int64, error) {
	if id < 0 {
		return 0, ErrInvalidID
	}
	return (id >> workerShift) & MaxWorkerID, nil
}

// Sequence recovers the per-millisecond sequence component of an id.
func Sequence(id int64) (int64, error) {
	if id < 0 {
		return 0, ErrInvalidID
	}
	return id & sequenceMask, nil
}

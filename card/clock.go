package card

import (
	"encoding/binary"
	"sync"
	"time"
)

// ClockPropertyKey holds the latest time stamped on a committed mint. The
// store writes it in the mint transaction, so the clock never commits alone.
const ClockPropertyKey = "CARDS:CLOCK:MONOTONIC"

// Clock never returns a time earlier than one it returned before, including
// across restarts of the process once the returned time is committed under
// ClockPropertyKey.
type Clock struct {
	sync.Mutex
	now time.Time
}

func NewClock(store Store) (*Clock, error) {
	bs, err := store.ReadProperty([]byte(ClockPropertyKey))
	if err != nil {
		return nil, err
	}
	var ts time.Time
	if len(bs) == 8 {
		ts = time.Unix(0, int64(binary.BigEndian.Uint64(bs)))
	}
	if now := time.Now(); ts.Before(now) {
		ts = now
	}
	return &Clock{now: ts}, nil
}

func (c *Clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	now := time.Now()
	if !now.After(c.now) {
		now = c.now.Add(time.Nanosecond)
	}
	c.now = now
	return now
}

func EncodeClock(t time.Time) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(t.UnixNano()))
}

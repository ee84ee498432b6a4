package grid

import (
	"sync"
	"time"
)

// DefaultMessageTTL is how long a confirmation banner stays up.
const DefaultMessageTTL = 4 * time.Second

// Banner holds a self-clearing confirmation message. Every Set re-arms the
// clear timer; a timer left over from an earlier Set never clears a newer
// message. Banner is safe for concurrent use because its timer fires on
// another goroutine.
type Banner struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	onClear func()

	msg     string
	expires time.Time
	gen     uint64
	timer   *time.Timer
}

// NewBanner creates a banner. A zero ttl uses DefaultMessageTTL; a nil now
// uses time.Now.
func NewBanner(ttl time.Duration, now func() time.Time) *Banner {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Banner{ttl: ttl, now: now}
}

// OnClear registers fn to run after the timer clears a message.
func (b *Banner) OnClear(fn func()) {
	b.mu.Lock()
	b.onClear = fn
	b.mu.Unlock()
}

// Set shows msg and schedules its removal. An empty msg clears the banner.
func (b *Banner) Set(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.msg = msg
	if msg == "" {
		b.expires = time.Time{}
		return
	}
	b.expires = b.now().Add(b.ttl)

	gen := b.gen
	b.timer = time.AfterFunc(b.ttl, func() { b.expire(gen) })
}

func (b *Banner) expire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.msg = ""
	b.expires = time.Time{}
	b.timer = nil
	fn := b.onClear
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Current returns the message, or "" once it has expired.
func (b *Banner) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.msg == "" || !b.now().Before(b.expires) {
		return ""
	}
	return b.msg
}

// Expires returns when the current message disappears. Zero when empty.
func (b *Banner) Expires() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expires
}

// Clear removes the message and cancels the pending timer.
func (b *Banner) Clear() {
	b.Set("")
}

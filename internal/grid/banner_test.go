package grid_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestBannerExpiry(t *testing.T) {
	as := assert.New(t)

	clock := &fakeClock{now: time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)}
	b := grid.NewBanner(time.Hour, clock.Now)
	defer b.Clear()

	b.Set("saved")
	as.Equal("saved", b.Current())
	as.Equal(clock.Now().Add(time.Hour), b.Expires())

	clock.Advance(59 * time.Minute)
	as.Equal("saved", b.Current())

	clock.Advance(time.Minute)
	as.Equal("", b.Current())

	b.Set("again")
	as.Equal("again", b.Current(), "a new message re-arms the expiry")
	b.Clear()
	as.Equal("", b.Current())
	as.True(b.Expires().IsZero())
}

func TestBannerTimerClears(t *testing.T) {
	b := grid.NewBanner(20*time.Millisecond, nil)

	cleared := make(chan struct{})
	b.OnClear(func() { close(cleared) })
	b.Set("saved")

	select {
	case <-cleared:
	case <-time.After(2 * time.Second):
		t.Fatal("banner was not cleared")
	}
	assert.Equal(t, "", b.Current())
}

func TestBannerSupersede(t *testing.T) {
	b := grid.NewBanner(200*time.Millisecond, nil)
	defer b.Clear()

	b.Set("first")
	time.Sleep(120 * time.Millisecond)
	b.Set("second")
	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, "second", b.Current(), "the first timer must not clear the second message")
}

func TestUserMessages(t *testing.T) {
	tests := []struct {
		kind  grid.MessageKind
		label string
		want  string
	}{
		{grid.MsgRowAdded, "Carpet 1", `"Carpet 1" has been added to the table.`},
		{grid.MsgRowDeleted, "", `"Row" has been deleted from the table.`},
		{grid.MsgRowEdited, "Carpet 1", `Changes to "Carpet 1" were saved successfully.`},
		{grid.MsgColumnAdded, "Notes", `Column "Notes" has been added.`},
		{grid.MsgColumnDeleted, "", `Column "Column" has been removed.`},
		{grid.MsgColumnRenamed, "Notes", `Column "Notes" has been renamed.`},
		{"unknown", "x", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, grid.UserMessage(tt.kind, tt.label))
		})
	}
}

// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/screener/internal/shared"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// ScriptedResponse is one canned exchange for a [ScriptedTransport].
type ScriptedResponse struct {
	Status int
	Body   string
	Header http.Header
}

// ScriptedTransport replays a fixed sequence of responses, recording each
// request it receives. Once the script is exhausted the last response
// repeats. Useful for retry and backoff tests where attempt N must see a
// different response than attempt N+1.
type ScriptedTransport struct {
	mu       sync.Mutex
	script   []ScriptedResponse
	index    int
	Requests []*http.Request
	Bodies   [][]byte
}

func NewScriptedTransport(script ...ScriptedResponse) *ScriptedTransport {
	return &ScriptedTransport{script: script}
}

func (s *ScriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	s.Requests = append(s.Requests, req)
	s.Bodies = append(s.Bodies, body)

	if len(s.script) == 0 {
		return nil, errors.New("scripted transport: empty script")
	}

	sr := s.script[s.index]
	if s.index < len(s.script)-1 {
		s.index++
	}

	header := sr.Header
	if header == nil {
		header = http.Header{"Content-Type": []string{"application/json"}}
	}

	return &http.Response{
		StatusCode: sr.Status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(sr.Body))),
		Request:    req,
	}, nil
}

// Calls returns how many requests the transport has served.
func (s *ScriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

var _ shared.Clock = (*FakeClock)(nil)

// FakeClock is a deterministic [shared.Clock]. Time only moves when the
// test calls Advance, which fires due timers on the caller's goroutine
// and records every sleep duration for assertion.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	Sleeps []time.Duration
}

// NewFakeClock creates a FakeClock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, fn func()) shared.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Sleep records the requested duration and returns immediately so retry
// loops run instantly under test. Context cancellation is still honored.
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.Sleeps = append(c.Sleeps, d)
	c.now = c.now.Add(d)
	due := c.due()
	c.mu.Unlock()
	fire(due)
	return nil
}

// Advance moves the clock forward, firing any timers that come due in
// order of their deadlines.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due := c.due()
	c.mu.Unlock()
	fire(due)
}

// SleepDurations returns a copy of every duration passed to Sleep.
func (c *FakeClock) SleepDurations() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.Sleeps))
	copy(out, c.Sleeps)
	return out
}

// due pops timers at or before now; callers fire them outside the lock.
func (c *FakeClock) due() []*fakeTimer {
	var due []*fakeTimer
	var rest []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			due = append(due, t)
		} else if !t.stopped {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	return due
}

func fire(timers []*fakeTimer) {
	for _, t := range timers {
		t.fn()
	}
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

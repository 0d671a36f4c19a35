/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrMockExhausted returned by MockTransport.Connect when no scripted
// channel is left for the attempt.
var ErrMockExhausted = errors.New("mock transport: no channel scripted for this dial")

// MockChannel is an in-memory ByteChannel used by tests and by the
// replay tooling. Writes are recorded; the test script delivers
// notification chunks with Notify.
type MockChannel struct {
	mu       sync.Mutex
	writes   [][]byte
	notify   func(chunk []byte)
	closed   bool
	OnWrite  func(p []byte) // optional hook, called after recording
	WriteErr error
}

func NewMockChannel() *MockChannel {
	return &MockChannel{}
}

func (c *MockChannel) Write(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.WriteErr != nil {
		err := c.WriteErr
		c.mu.Unlock()
		return err
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	c.writes = append(c.writes, cp)
	hook := c.OnWrite
	c.mu.Unlock()
	if hook != nil {
		hook(cp)
	}
	return nil
}

func (c *MockChannel) OnNotification(fn func(chunk []byte)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// Notify delivers a chunk as if the device had sent a notification.
func (c *MockChannel) Notify(chunk []byte) {
	c.mu.Lock()
	fn := c.notify
	closed := c.closed
	c.mu.Unlock()
	if fn != nil && !closed {
		fn(chunk)
	}
}

// Writes returns a copy of everything written to the control channel
// so far.
func (c *MockChannel) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *MockChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *MockChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// MockTransport hands out scripted channels in order, one per Connect
// call. A nil channel entry makes that Connect attempt fail.
type MockTransport struct {
	mu       sync.Mutex
	channels []*MockChannel
	dials    int
	OnDial   func(attempt int, ch *MockChannel)
}

func NewMockTransport(channels ...*MockChannel) *MockTransport {
	return &MockTransport{channels: channels}
}

func (t *MockTransport) Connect(ctx context.Context, deviceID string) (ByteChannel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	attempt := t.dials
	t.dials++
	var ch *MockChannel
	if attempt < len(t.channels) {
		ch = t.channels[attempt]
	}
	hook := t.OnDial
	t.mu.Unlock()
	if ch == nil {
		return nil, ErrMockExhausted
	}
	if hook != nil {
		hook(attempt, ch)
	}
	return ch, nil
}

func (t *MockTransport) Dials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

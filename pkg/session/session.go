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

// Package session sequences the headband handshake and tracks the
// protocol phase of one device connection.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/amused-dev/go-amused/pkg/log"
	"github.com/amused-dev/go-amused/pkg/transport"
)

// State is the protocol phase of a session.
type State int

const (
	Disconnected State = iota
	Handshaking
	Streaming
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Handshaking:
		return "Handshaking"
	case Streaming:
		return "Streaming"
	case Reconnecting:
		return "Reconnecting"
	}
	return "Unknown"
}

const (
	DefaultHandshakeTimeout = 10 * time.Second

	// startStreamWrites is how many times the stream-start token must
	// be written. Writing it once does not start the data flow; this is
	// a protocol quirk of the device, not a retry.
	startStreamWrites = 2
)

// Session is the per-connection state machine. It owns the preset for
// its whole lifetime and flips to Streaming only when the first valid
// frame arrives, never on command writes alone.
type Session struct {
	preset           Preset
	handshakeTimeout time.Duration

	mu        sync.Mutex
	state     State
	ch        transport.ByteChannel
	streaming chan struct{} // closed on the Handshaking -> Streaming edge
}

func New(preset Preset, handshakeTimeout time.Duration) *Session {
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}
	return &Session{
		preset:           preset,
		handshakeTimeout: handshakeTimeout,
		state:            Disconnected,
		streaming:        make(chan struct{}),
	}
}

func (s *Session) Preset() Preset { return s.preset }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from != to {
		log.Info("Session state: %s -> %s", from, to)
	}
}

// Begin runs the handshake command sequence on a freshly connected
// channel and moves the session to Handshaking. The Streaming
// transition happens later, in FrameReceived.
func (s *Session) Begin(ctx context.Context, ch transport.ByteChannel) error {
	if !KnownPreset(s.preset) {
		return ErrBadPreset{Preset: s.preset}
	}

	s.mu.Lock()
	if s.state == Streaming || s.state == Handshaking {
		op := s.state
		s.mu.Unlock()
		return ErrWrongState{Op: "Begin", State: op}
	}
	s.ch = ch
	s.state = Handshaking
	s.streaming = make(chan struct{})
	s.mu.Unlock()
	log.Info("Session state: %s", Handshaking)

	return s.handshake(ctx, ch, startStreamWrites)
}

// handshake writes the enable sequence. startWrites is a parameter so
// the double-write requirement stays testable.
func (s *Session) handshake(ctx context.Context, ch transport.ByteChannel, startWrites int) error {
	tokens := []string{CmdVersion, CmdStatus, CmdHalt, string(s.preset)}
	for i := 0; i < startWrites; i++ {
		tokens = append(tokens, CmdStartStream)
	}
	tokens = append(tokens, CmdKeepAlive)

	for _, token := range tokens {
		log.Debug("Handshake write: %s", token)
		if err := ch.Write(ctx, EncodeCommand(token)); err != nil {
			return err
		}
	}
	return nil
}

// FrameReceived marks the arrival of a valid decoded frame. The first
// one during Handshaking confirms the device actually started
// streaming and completes the handshake.
func (s *Session) FrameReceived() {
	s.mu.Lock()
	if s.state != Handshaking {
		s.mu.Unlock()
		return
	}
	s.state = Streaming
	close(s.streaming)
	s.mu.Unlock()
	log.Info("Session state: %s -> %s", Handshaking, Streaming)
}

// AwaitStreaming blocks until the first frame confirms the stream, the
// handshake window elapses, or ctx is cancelled.
func (s *Session) AwaitStreaming(ctx context.Context) error {
	s.mu.Lock()
	streaming := s.streaming
	state := s.state
	s.mu.Unlock()
	if state == Streaming {
		return nil
	}
	if state != Handshaking {
		return ErrWrongState{Op: "AwaitStreaming", State: state}
	}

	timer := time.NewTimer(s.handshakeTimeout)
	defer timer.Stop()
	select {
	case <-streaming:
		return nil
	case <-timer.C:
		return ErrHandshakeTimeout{Timeout: s.handshakeTimeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// KeepAlive nudges the device to keep the stream open.
func (s *Session) KeepAlive(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	state := s.state
	s.mu.Unlock()
	if state != Streaming || ch == nil {
		return ErrWrongState{Op: "KeepAlive", State: state}
	}
	return ch.Write(ctx, EncodeCommand(CmdKeepAlive))
}

// Halt asks the device to stop streaming. Used on orderly shutdown.
func (s *Session) Halt(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	if ch == nil {
		return ErrWrongState{Op: "Halt", State: Disconnected}
	}
	return ch.Write(ctx, EncodeCommand(CmdHalt))
}

// Drop records loss of the transport. to must be Reconnecting (the
// client will retry) or Disconnected (orderly close or retries
// exhausted).
func (s *Session) Drop(to State) {
	if to != Reconnecting && to != Disconnected {
		to = Disconnected
	}
	s.mu.Lock()
	s.ch = nil
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from != to {
		log.Info("Session state: %s -> %s", from, to)
	}
}

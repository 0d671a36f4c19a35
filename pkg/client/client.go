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

// Package client ties the transport, the demultiplexer, the session
// state machine and the metric engines together into one streaming
// loop with per-modality callbacks.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amused-dev/go-amused/pkg/demux"
	"github.com/amused-dev/go-amused/pkg/layers"
	"github.com/amused-dev/go-amused/pkg/log"
	"github.com/amused-dev/go-amused/pkg/metrics"
	"github.com/amused-dev/go-amused/pkg/recording"
	"github.com/amused-dev/go-amused/pkg/session"
	"github.com/amused-dev/go-amused/pkg/transport"
)

const (
	DefaultMaxReconnects     = 5
	DefaultReconnectBase     = 500 * time.Millisecond
	DefaultKeepAliveInterval = 2 * time.Second
	// DefaultDataTimeout is how long the stream may stay silent before
	// the link is treated as lost. The headband emits packets every few
	// milliseconds while streaming.
	DefaultDataTimeout = 5 * time.Second
	// DefaultChunkQueueSize buffers notification chunks between the
	// BLE callback and the decode loop.
	DefaultChunkQueueSize = 256
)

// Callbacks are invoked synchronously from the decode loop, one frame
// at a time, in stream order. A slow callback slows the stream down;
// it never reorders it.
type Callbacks struct {
	OnEEG       func(*layers.EEGFrame)
	OnPPG       func(*layers.PPGFrame)
	OnIMU       func(*layers.IMUFrame)
	OnAux       func(*layers.AuxFrame)
	OnHeartRate func(metrics.HeartRateResult)
	OnFNIRS     func(metrics.FNIRSResult)
	// OnError receives recoverable stream errors (unknown headers,
	// malformed payloads, desynchronization). Fatal errors end Run
	// instead.
	OnError func(err error)
}

// Options configure one Client.
type Options struct {
	// DeviceID is the transport address to dial. Empty lets the
	// transport pick the first headband it finds.
	DeviceID string
	Preset   session.Preset

	HandshakeTimeout  time.Duration
	MaxReconnects     int
	ReconnectBase     time.Duration
	KeepAliveInterval time.Duration
	DataTimeout       time.Duration
	ChunkQueueSize    int
	RecordQueueSize   int
}

func (o Options) withDefaults() Options {
	if o.Preset == "" {
		o.Preset = session.PresetBasic
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = DefaultMaxReconnects
	}
	if o.ReconnectBase <= 0 {
		o.ReconnectBase = DefaultReconnectBase
	}
	if o.KeepAliveInterval <= 0 {
		o.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if o.DataTimeout <= 0 {
		o.DataTimeout = DefaultDataTimeout
	}
	if o.ChunkQueueSize <= 0 {
		o.ChunkQueueSize = DefaultChunkQueueSize
	}
	if o.RecordQueueSize <= 0 {
		o.RecordQueueSize = DefaultRecordQueueSize
	}
	return o
}

type timedChunk struct {
	data []byte
	ts   time.Time
}

// Client drives one headband connection end to end. Decoding and
// dispatch are confined to the Run goroutine; mu protects the state
// read by concurrent accessors (stats, recorder, last metric results).
type Client struct {
	tr   transport.Transport
	opts Options
	cb   Callbacks

	sess  *session.Session
	dmx   *demux.Demux
	hr    *metrics.HeartRateEngine
	fnirs *metrics.FNIRSEngine

	chunks chan timedChunk

	mu       sync.Mutex
	stats    Stats
	rec      *recorder
	lastHR   metrics.HeartRateResult
	hasHR    bool
	lastNIRS metrics.FNIRSResult
	hasFNIRS bool
}

func New(tr transport.Transport, opts Options, cb Callbacks) *Client {
	opts = opts.withDefaults()
	c := &Client{
		tr:     tr,
		opts:   opts,
		cb:     cb,
		sess:   session.New(opts.Preset, opts.HandshakeTimeout),
		hr:     metrics.NewHeartRateEngine(layers.PPGSampleRate),
		fnirs:  metrics.NewFNIRSEngine(),
		chunks: make(chan timedChunk, opts.ChunkQueueSize),
	}
	c.dmx = demux.NewDemux(c)
	return c
}

// Session exposes the state machine for status reporting.
func (c *Client) Session() *session.Session { return c.sess }

// Stats returns a snapshot of the stream counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// LastHeartRate returns the most recent heart-rate result, if any.
func (c *Client) LastHeartRate() (metrics.HeartRateResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHR, c.hasHR
}

// LastFNIRS returns the most recent fNIRS result, if any.
func (c *Client) LastFNIRS() (metrics.FNIRSResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastNIRS, c.hasFNIRS
}

// Run connects, handshakes and pumps the stream until ctx is cancelled
// or the link is lost beyond repair. It reconnects with exponential
// backoff, resetting the demultiplexer across each reconnect so a
// fragment spanning the gap can never be misparsed.
func (c *Client) Run(ctx context.Context) error {
	defer func() {
		if err := c.StopRecording(); err != nil {
			var noRec ErrNoRecording
			if !errors.As(err, &noRec) {
				log.Error("Closing recording: %v", err)
			}
		}
	}()

	ch, err := c.connect(ctx)
	if err != nil {
		return err
	}

	for {
		runErr := c.pump(ctx, ch)
		ch.Close()

		if ctx.Err() != nil {
			c.sess.Drop(session.Disconnected)
			return ctx.Err()
		}
		log.Warning("Stream interrupted: %v", runErr)
		c.sess.Drop(session.Reconnecting)
		c.dmx.Reset()
		c.countReconnect()

		ch, err = c.reconnect(ctx)
		if err != nil {
			c.sess.Drop(session.Disconnected)
			return err
		}
	}
}

func (c *Client) connect(ctx context.Context) (transport.ByteChannel, error) {
	ch, err := c.tr.Connect(ctx, c.opts.DeviceID)
	if err != nil {
		return nil, err
	}
	ch.OnNotification(func(chunk []byte) {
		select {
		case c.chunks <- timedChunk{data: chunk, ts: time.Now()}:
		case <-ctx.Done():
		}
	})
	if err := c.sess.Begin(ctx, ch); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}

func (c *Client) reconnect(ctx context.Context) (transport.ByteChannel, error) {
	backoff := c.opts.ReconnectBase
	for attempt := 1; attempt <= c.opts.MaxReconnects; attempt++ {
		log.Info("Reconnect attempt %d/%d in %s", attempt, c.opts.MaxReconnects, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		ch, err := c.connect(ctx)
		if err == nil {
			return ch, nil
		}
		log.Warning("Reconnect attempt %d failed: %v", attempt, err)
		backoff *= 2
	}
	return nil, ErrSessionLost{Attempts: c.opts.MaxReconnects}
}

// pump is the decode loop for one connected channel. It returns when
// the handshake times out, the link looks dead (keep-alive write
// failure or data timeout), or ctx ends. The handshake confirmation
// runs concurrently because the confirming frame is decoded by this
// very loop.
func (c *Client) pump(ctx context.Context, ch transport.ByteChannel) error {
	confirmed := make(chan error, 1)
	go func() {
		confirmed <- c.sess.AwaitStreaming(ctx)
	}()

	keepAlive := time.NewTicker(c.opts.KeepAliveInterval)
	defer keepAlive.Stop()
	silence := time.NewTimer(c.opts.DataTimeout)
	defer silence.Stop()

	for {
		select {
		case tc := <-c.chunks:
			c.countBytes(len(tc.data))
			c.dmx.Feed(tc.data, tc.ts)
			if !silence.Stop() {
				select {
				case <-silence.C:
				default:
				}
			}
			silence.Reset(c.opts.DataTimeout)
		case err := <-confirmed:
			if err != nil {
				return err
			}
			confirmed = nil
		case <-keepAlive.C:
			if c.sess.State() != session.Streaming {
				continue
			}
			if err := c.sess.KeepAlive(ctx); err != nil {
				return err
			}
		case <-silence.C:
			return errStreamSilent(c.opts.DataTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandlePacket implements demux.Sink. This is the single place every
// live frame passes through.
func (c *Client) HandlePacket(p *layers.RawPacket) {
	frame, err := layers.DecodeFrame(p)
	if err != nil {
		c.countDecodeError()
		c.reportError(err)
		return
	}
	c.sess.FrameReceived()
	c.dispatch(frame)
}

// HandleError implements demux.Sink.
func (c *Client) HandleError(err error) {
	c.countStreamError()
	c.reportError(err)
}

func (c *Client) reportError(err error) {
	if c.cb.OnError != nil {
		c.cb.OnError(err)
	} else {
		log.Warning("Stream error: %v", err)
	}
}

// dispatch fans one decoded frame out to the recorder, the metric
// engines and the per-modality callback, in that order.
func (c *Client) dispatch(frame layers.Frame) {
	c.countFrame(frame.Type())

	c.mu.Lock()
	rec := c.rec
	c.mu.Unlock()
	if rec != nil {
		rec.enqueue(frame)
	}

	switch f := frame.(type) {
	case *layers.EEGFrame:
		if c.cb.OnEEG != nil {
			c.cb.OnEEG(f)
		}
	case *layers.PPGFrame:
		if c.cb.OnPPG != nil {
			c.cb.OnPPG(f)
		}
		c.updateMetrics(f)
	case *layers.IMUFrame:
		if c.cb.OnIMU != nil {
			c.cb.OnIMU(f)
		}
	case *layers.AuxFrame:
		if c.cb.OnAux != nil {
			c.cb.OnAux(f)
		}
	}
}

func (c *Client) updateMetrics(f *layers.PPGFrame) {
	c.hr.PushFrame(f)
	if res, err := c.hr.Compute(); err == nil {
		c.mu.Lock()
		c.lastHR, c.hasHR = res, true
		c.mu.Unlock()
		if c.cb.OnHeartRate != nil {
			c.cb.OnHeartRate(res)
		}
	} else if !errors.Is(err, metrics.ErrInsufficientData) {
		c.reportError(err)
	}

	if res, err := c.fnirs.PushFrame(f); err == nil {
		c.mu.Lock()
		c.lastNIRS, c.hasFNIRS = res, true
		c.mu.Unlock()
		if c.cb.OnFNIRS != nil {
			c.cb.OnFNIRS(res)
		}
	} else if !errors.Is(err, metrics.ErrInsufficientData) {
		c.reportError(err)
	}
}

// Replay pushes a recorded file through the same dispatch path as a
// live stream, honoring recorded gaps scaled by speed (0 means as fast
// as possible).
func (c *Client) Replay(ctx context.Context, path string, speed float64) error {
	reader, err := recording.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	player := recording.NewReplayer(reader)
	player.Speed = speed
	return player.Play(ctx, func(ts time.Time, f layers.Frame) {
		c.dispatch(f)
	})
}

type errStreamSilent time.Duration

func (e errStreamSilent) Error() string {
	return "no data received for " + time.Duration(e).String()
}

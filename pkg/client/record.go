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

package client

import (
	"sync"

	"github.com/amused-dev/go-amused/pkg/layers"
	"github.com/amused-dev/go-amused/pkg/log"
	"github.com/amused-dev/go-amused/pkg/recording"
)

// DefaultRecordQueueSize bounds the handoff from the decode loop to
// the recorder goroutine. A full queue blocks the decode loop; frames
// are never dropped from an active recording.
const DefaultRecordQueueSize = 1024

// recorder drains frames into a recording file on its own goroutine so
// disk latency stays off the decode loop. mu serializes enqueue
// against stop: the decode loop may still be dispatching frames when
// the API asks to finalize, and those late frames must be dropped, not
// sent on a closed queue.
type recorder struct {
	path   string
	writer *recording.Writer
	queue  chan layers.Frame
	done   chan struct{}
	err    error

	mu      sync.Mutex
	closing bool
}

func newRecorder(path, deviceID string, preset string, queueSize int) (*recorder, error) {
	w, err := recording.Create(path, deviceID, preset)
	if err != nil {
		return nil, err
	}
	if queueSize <= 0 {
		queueSize = DefaultRecordQueueSize
	}
	r := &recorder{
		path:   path,
		writer: w,
		queue:  make(chan layers.Frame, queueSize),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r, nil
}

func (r *recorder) drain() {
	defer close(r.done)
	for f := range r.queue {
		if err := r.writer.Append(f); err != nil {
			// Keep draining so enqueue never wedges; the error
			// surfaces from stop.
			if r.err == nil {
				r.err = err
				log.Error("Recording %s: %v", r.path, err)
			}
		}
	}
}

// enqueue hands one frame to the drain goroutine. Holding mu across
// the send is safe: drain keeps consuming until the queue closes, so a
// full queue delays stop, never deadlocks it. After stop the frame is
// dropped.
func (r *recorder) enqueue(f layers.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return
	}
	r.queue <- f
}

// stop closes the queue, waits for the drain goroutine and finalizes
// the file header.
func (r *recorder) stop() (uint32, error) {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()
	close(r.queue)
	<-r.done
	count := r.writer.Count()
	if err := r.writer.Close(); err != nil {
		return count, err
	}
	return count, r.err
}

// StartRecording begins capturing every decoded frame to path.
func (c *Client) StartRecording(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec != nil {
		return ErrRecordingActive{Path: c.rec.path}
	}
	rec, err := newRecorder(path, c.opts.DeviceID, string(c.opts.Preset), c.opts.RecordQueueSize)
	if err != nil {
		return err
	}
	c.rec = rec
	log.Info("Recording to %s", path)
	return nil
}

// StopRecording finalizes the active recording and returns its path.
func (c *Client) StopRecording() error {
	c.mu.Lock()
	rec := c.rec
	c.rec = nil
	c.mu.Unlock()
	if rec == nil {
		return ErrNoRecording{}
	}
	count, err := rec.stop()
	if err != nil {
		return err
	}
	log.Info("Recording finished: %s (%d frames)", rec.path, count)
	return nil
}

// Recording reports whether a recording is active and to which path.
func (c *Client) Recording() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return "", false
	}
	return c.rec.path, true
}

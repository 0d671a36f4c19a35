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

import "github.com/amused-dev/go-amused/pkg/layers"

// Stats are cumulative stream counters since the client was created.
// They survive reconnects.
type Stats struct {
	BytesIn      uint64
	EEGFrames    uint64
	PPGFrames    uint64
	IMUFrames    uint64
	AuxFrames    uint64
	DecodeErrors uint64
	StreamErrors uint64
	Reconnects   uint64
}

// Frames is the total across all modalities.
func (s Stats) Frames() uint64 {
	return s.EEGFrames + s.PPGFrames + s.IMUFrames + s.AuxFrames
}

func (c *Client) countBytes(n int) {
	c.mu.Lock()
	c.stats.BytesIn += uint64(n)
	c.mu.Unlock()
}

func (c *Client) countFrame(h layers.Header) {
	c.mu.Lock()
	switch h {
	case layers.HeaderEEG:
		c.stats.EEGFrames++
	case layers.HeaderPPG:
		c.stats.PPGFrames++
	case layers.HeaderIMU:
		c.stats.IMUFrames++
	case layers.HeaderAux:
		c.stats.AuxFrames++
	}
	c.mu.Unlock()
}

func (c *Client) countDecodeError() {
	c.mu.Lock()
	c.stats.DecodeErrors++
	c.mu.Unlock()
}

func (c *Client) countStreamError() {
	c.mu.Lock()
	c.stats.StreamErrors++
	c.mu.Unlock()
}

func (c *Client) countReconnect() {
	c.mu.Lock()
	c.stats.Reconnects++
	c.mu.Unlock()
}

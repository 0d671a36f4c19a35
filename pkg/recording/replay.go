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

package recording

import (
	"context"
	"io"
	"time"

	"github.com/amused-dev/go-amused/pkg/layers"
	"github.com/amused-dev/go-amused/pkg/log"
)

// Replayer feeds a recording back through a frame handler, preserving
// the recorded inter-frame spacing. Downstream consumers cannot tell a
// replayed stream from a live one.
type Replayer struct {
	reader *Reader
	// Speed scales playback: 2.0 halves every gap, 1.0 plays in real
	// time, 0 (or negative) skips the gaps entirely.
	Speed float64
	// OnProgress, when set, is called after each frame with the number
	// of frames delivered.
	OnProgress func(delivered uint32)
}

func NewReplayer(reader *Reader) *Replayer {
	return &Replayer{reader: reader, Speed: 1.0}
}

// Play delivers every remaining frame to handle, sleeping the recorded
// gap (scaled by Speed) between frames. It returns nil on a clean end
// of the recording.
func (p *Replayer) Play(ctx context.Context, handle func(ts time.Time, f layers.Frame)) error {
	speed := p.Speed

	var (
		delivered uint32
		prev      time.Time
		havePrev  bool
	)
	for {
		ts, frame, err := p.reader.Next()
		if err == io.EOF {
			log.Info("Replay complete: %d frames", delivered)
			return nil
		}
		if err != nil {
			return err
		}

		if havePrev && speed > 0 {
			gap := time.Duration(float64(ts.Sub(prev)) / speed)
			if gap > 0 {
				timer := time.NewTimer(gap)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
			}
		}
		prev, havePrev = ts, true

		handle(ts, frame)
		delivered++
		if p.OnProgress != nil {
			p.OnProgress(delivered)
		}
	}
}

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

package replay

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amused-dev/go-amused/pkg/client"
	"github.com/amused-dev/go-amused/pkg/metrics"
)

const (
	SpeedOptionName = "speed"
)

func NewCommand() *cobra.Command {
	var speed float64
	cmd := &cobra.Command{
		Use:   "replay <path>",
		Short: "Replay a recording through the decode pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := client.New(nil, client.Options{}, client.Callbacks{
				OnHeartRate: func(res metrics.HeartRateResult) {
					cmd.Printf("heart rate: %.1f bpm (rmssd %.1f ms)\n", res.BPM, res.RMSSDMs)
				},
				OnFNIRS: func(res metrics.FNIRSResult) {
					cmd.Printf("fnirs: hbo2 %+.4f hbr %+.4f tsi %.2f\n", res.HbO2, res.HbR, res.TSI)
				},
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				sig := make(chan os.Signal, 1)
				signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
				<-sig
				cancel()
			}()

			if err := cl.Replay(ctx, args[0], speed); err != nil {
				return err
			}
			stats := cl.Stats()
			cmd.Printf("replayed %d frames (eeg %d, ppg %d, imu %d, aux %d)\n",
				stats.Frames(), stats.EEGFrames, stats.PPGFrames, stats.IMUFrames, stats.AuxFrames)
			return nil
		},
	}
	cmd.Flags().Float64Var(&speed, SpeedOptionName, 1.0, "Replay speed factor. 0 replays as fast as possible")
	return cmd
}

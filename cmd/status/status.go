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

package status

import (
	"github.com/spf13/cobra"

	"github.com/amused-dev/go-amused/pkg/command"
	"github.com/amused-dev/go-amused/pkg/config"
)

func NewCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			status, err := apiClient.Status()
			if err != nil {
				return err
			}
			cmd.Printf("state:      %s\n", status.State)
			cmd.Printf("preset:     %s\n", status.Preset)
			cmd.Printf("frames:     %d (eeg %d, ppg %d, imu %d, aux %d)\n",
				status.Stats.Frames(), status.Stats.EEGFrames, status.Stats.PPGFrames,
				status.Stats.IMUFrames, status.Stats.AuxFrames)
			cmd.Printf("bytes in:   %d\n", status.Stats.BytesIn)
			cmd.Printf("errors:     %d decode, %d stream\n", status.Stats.DecodeErrors, status.Stats.StreamErrors)
			cmd.Printf("reconnects: %d\n", status.Stats.Reconnects)
			if status.Recording {
				cmd.Printf("recording:  %s\n", status.RecordingPath)
			} else {
				cmd.Println("recording:  off")
			}
			return nil
		},
	}
	return cmd
}

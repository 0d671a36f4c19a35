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

package record

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/amused-dev/go-amused/pkg/command"
	"github.com/amused-dev/go-amused/pkg/config"
	"github.com/amused-dev/go-amused/pkg/recording"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Control recording on a running stream",
	}
	cmd.AddCommand(NewStartCommand())
	cmd.AddCommand(NewStopCommand())
	cmd.AddCommand(NewInfoCommand())
	return cmd
}

func NewStartCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "start <path>",
		Short: "Start recording the live stream to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if err := apiClient.RecordStart(args[0]); err != nil {
				return err
			}
			cmd.Printf("Recording to %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func NewStopCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Finalize the active recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if err := apiClient.RecordStop(); err != nil {
				return err
			}
			cmd.Println("Recording stopped")
			return nil
		},
	}
	return cmd
}

func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <path>",
		Short: "Print the header of a recording file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := recording.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			info := reader.Info()
			cmd.Printf("version:   %d\n", info.Version)
			cmd.Printf("device:    %s\n", info.DeviceID)
			cmd.Printf("preset:    %s\n", info.Preset)
			cmd.Printf("created:   %s\n", time.UnixMicro(info.CreatedAt).Format("2006-01-02 15:04:05.000000"))
			if info.Finalized() {
				cmd.Printf("frames:    %d\n", info.RecordCount)
			} else {
				cmd.Println("frames:    unknown (recording was not finalized)")
			}
			return nil
		},
	}
	return cmd
}

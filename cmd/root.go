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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amused-dev/go-amused/cmd/completion"
	"github.com/amused-dev/go-amused/cmd/config"
	"github.com/amused-dev/go-amused/cmd/devices"
	"github.com/amused-dev/go-amused/cmd/record"
	"github.com/amused-dev/go-amused/cmd/replay"
	"github.com/amused-dev/go-amused/cmd/status"
	"github.com/amused-dev/go-amused/cmd/stream"
	pkgconfig "github.com/amused-dev/go-amused/pkg/config"
	"github.com/amused-dev/go-amused/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "go-amused",
		Short: "Tool to stream, record and analyze Muse headband data",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand())
	cmd.AddCommand(devices.NewCommand())
	cmd.AddCommand(stream.NewCommand())
	cmd.AddCommand(record.NewCommand())
	cmd.AddCommand(replay.NewCommand())
	cmd.AddCommand(status.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}

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

package config

import (
	"github.com/spf13/cobra"

	pkgconfig "github.com/amused-dev/go-amused/pkg/config"
)

const (
	OverwriteOptionName = "overwrite"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(NewNewCommand())
	cmd.AddCommand(NewShowCommand())
	return cmd
}

func NewNewCommand() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pkgconfig.NewDefaultConfig()
			if err := cfg.Persist(overwrite); err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", pkgconfig.DefaultConfigPath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, OverwriteOptionName, false, "Overwrite an existing configuration file")
	return cmd
}

func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pkgconfig.NewDefaultConfig()
			cfg.LoadConfig()
			cmd.Printf("config file:   %s\n", pkgconfig.DefaultConfigPath())
			cmd.Printf("device:        %s\n", cfg.Device.Address)
			cmd.Printf("preset:        %s\n", cfg.Device.Preset)
			cmd.Printf("api:           %s:%d\n", cfg.Api.Address, cfg.Api.Port)
			cmd.Printf("data dir:      %s\n", cfg.DataDir)
			cmd.Printf("log level:     %s\n", cfg.LogLevel)
			return nil
		},
	}
	return cmd
}

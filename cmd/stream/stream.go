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

package stream

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amused-dev/go-amused/pkg/client"
	"github.com/amused-dev/go-amused/pkg/config"
	"github.com/amused-dev/go-amused/pkg/devicestore"
	"github.com/amused-dev/go-amused/pkg/log"
	"github.com/amused-dev/go-amused/pkg/session"
	"github.com/amused-dev/go-amused/pkg/transport"
)

const (
	DeviceOptionName = "device"
	PresetOptionName = "preset"
	RecordOptionName = "record"
)

func NewCommand() *cobra.Command {
	var device string
	var preset string
	var recordPath string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Connect to a headband and stream until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if device == "" {
				device = resolveDevice(cfg)
			}
			if preset == "" {
				preset = cfg.Device.Preset
			}

			cl := client.New(transport.NewBLE(), client.Options{
				DeviceID:         device,
				Preset:           session.Preset(preset),
				HandshakeTimeout: time.Duration(cfg.Stream.HandshakeTimeoutSec) * time.Second,
				MaxReconnects:    cfg.Stream.MaxReconnects,
				ReconnectBase:    time.Duration(cfg.Stream.BackoffBaseMs) * time.Millisecond,
				ChunkQueueSize:   cfg.Stream.ChunkQueueSize,
				RecordQueueSize:  cfg.Stream.RecordQueueSize,
			}, client.Callbacks{})

			if recordPath != "" {
				if err := cl.StartRecording(recordPath); err != nil {
					return err
				}
			}

			go startApi(cfg, cl)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				sig := make(chan os.Signal, 1)
				signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
				<-sig
				log.Info("Shutting down")
				cancel()
			}()

			err := cl.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&device, DeviceOptionName, "", "Device address to dial. Empty uses the preferred device or the first one found")
	cmd.Flags().StringVar(&preset, PresetOptionName, "", "Sensor preset, p1034 or p1035")
	cmd.Flags().StringVar(&recordPath, RecordOptionName, "", "Record the stream to this file")
	return cmd
}

// resolveDevice falls back from the config file to the registry's
// preferred entry; empty means the transport picks.
func resolveDevice(cfg *config.Config) string {
	if cfg.Device.Address != "" {
		return cfg.Device.Address
	}
	store, err := devicestore.Open(cfg.RegistryPath())
	if err != nil {
		return ""
	}
	defer store.Close()
	rec, err := store.Preferred()
	if err != nil {
		return ""
	}
	return rec.Address
}

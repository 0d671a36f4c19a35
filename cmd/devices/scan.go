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

package devices

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/amused-dev/go-amused/pkg/transport"
)

const (
	TimeoutOptionName = "timeout"
)

func NewScanCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for nearby headbands and register them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ble := transport.NewBLE()
			infos, err := ble.Scan(context.Background(), timeout)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.PutDiscovered(infos); err != nil {
				return err
			}
			for _, info := range infos {
				cmd.Printf("%s  %s  rssi=%d\n", info.Address, info.Name, info.RSSI)
			}
			cmd.Printf("%d device(s) found\n", len(infos))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, TimeoutOptionName, transport.DefaultScanTimeout, "How long to scan")
	return cmd
}

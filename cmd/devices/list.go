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
	"errors"

	"github.com/spf13/cobra"

	"github.com/amused-dev/go-amused/pkg/devicestore"
)

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered headbands",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.List()
			if err != nil {
				return err
			}
			preferred, err := store.Preferred()
			if err != nil {
				var none devicestore.ErrNoPreferredDevice
				if !errors.As(err, &none) {
					return err
				}
			}
			for _, rec := range recs {
				marker := " "
				if rec.Address == preferred.Address {
					marker = "*"
				}
				cmd.Printf("%s %s  %s  rssi=%d  seen=%s\n",
					marker, rec.Address, rec.Name, rec.RSSI, rec.LastSeen.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	return cmd
}

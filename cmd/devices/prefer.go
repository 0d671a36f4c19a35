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
	"github.com/spf13/cobra"
)

func NewPreferCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefer <address>",
		Short: "Mark a registered headband as the default dial target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SetPreferred(args[0]); err != nil {
				return err
			}
			cmd.Printf("Preferred device: %s\n", args[0])
			return nil
		},
	}
	return cmd
}

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
	"github.com/amused-dev/go-amused/pkg/client"
	"github.com/amused-dev/go-amused/pkg/config"
	"github.com/amused-dev/go-amused/pkg/log"
	"github.com/amused-dev/go-amused/pkg/srv"
)

func startApi(cfg *config.Config, cl *client.Client) {
	api := srv.NewApiServer(cfg, cl)
	if err := api.Run(); err != nil {
		log.Error("API server: %v", err)
	}
}

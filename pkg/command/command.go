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

// Package command is the HTTP client side of the daemon API, used by
// the CLI subcommands that talk to a running stream.
package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/amused-dev/go-amused/pkg/config"
	"github.com/amused-dev/go-amused/pkg/srv"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.Api.Address, cfg.Api.Port),
	}
}

func (c *ApiClient) statusUrl() string {
	return fmt.Sprintf("%s/status", c.ApiPrefix)
}

func (c *ApiClient) recordUrl() string {
	return fmt.Sprintf("%s/record", c.ApiPrefix)
}

func (c *ApiClient) recordStopUrl() string {
	return fmt.Sprintf("%s/record/stop", c.ApiPrefix)
}

func (c *ApiClient) heartRateUrl() string {
	return fmt.Sprintf("%s/metrics/heartrate", c.ApiPrefix)
}

func (c *ApiClient) fnirsUrl() string {
	return fmt.Sprintf("%s/metrics/fnirs", c.ApiPrefix)
}

// Status fetches the daemon session state and stream counters.
func (c *ApiClient) Status() (*srv.StatusResponse, error) {
	r, err := req.Get(c.statusUrl())
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	status := &srv.StatusResponse{}
	if err := r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

// RecordStart asks the daemon to start recording to path.
func (c *ApiClient) RecordStart(path string) error {
	r, err := req.Post(c.recordUrl(), req.BodyJSON(&srv.RecordRequest{Path: path}))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 201 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// RecordStop finalizes the active recording.
func (c *ApiClient) RecordStop() error {
	r, err := req.Get(c.recordStopUrl())
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// HeartRate fetches the most recent heart-rate computation.
func (c *ApiClient) HeartRate() (*srv.HeartRateResponse, error) {
	r, err := req.Get(c.heartRateUrl())
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	hr := &srv.HeartRateResponse{}
	if err := r.ToJSON(hr); err != nil {
		return nil, err
	}
	return hr, nil
}

// FNIRS fetches the most recent oxygenation computation.
func (c *ApiClient) FNIRS() (*srv.FNIRSResponse, error) {
	r, err := req.Get(c.fnirsUrl())
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	res := &srv.FNIRSResponse{}
	if err := r.ToJSON(res); err != nil {
		return nil, err
	}
	return res, nil
}

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

package srv

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amused-dev/go-amused/pkg/client"
	"github.com/amused-dev/go-amused/pkg/config"
)

func newTestServer(t *testing.T) (*ApiServer, *client.Client) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cl := client.New(nil, client.Options{}, client.Callbacks{})
	return NewApiServer(cfg, cl), cl
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "Disconnected", status.State)
	assert.Equal(t, "p1034", status.Preset)
	assert.False(t, status.Recording)
}

func TestRecordLifecycleEndpoints(t *testing.T) {
	s, cl := newTestServer(t)
	path := filepath.Join(t.TempDir(), "api.mbr")

	// stop without an active recording
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/record/stop", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// start
	body := strings.NewReader(`{"path":"` + path + `"}`)
	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/record", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	gotPath, active := cl.Recording()
	assert.True(t, active)
	assert.Equal(t, path, gotPath)

	// double start conflicts
	body = strings.NewReader(`{"path":"elsewhere.mbr"}`)
	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/record", body))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// stop
	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/record/stop", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordRequiresPath(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/record", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpointsBeforeData(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/metrics/heartrate", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/metrics/fnirs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

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

// Package srv exposes the streaming daemon over a small HTTP API so
// the CLI can control a running session.
package srv

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/amused-dev/go-amused/pkg/client"
	"github.com/amused-dev/go-amused/pkg/config"
	"github.com/amused-dev/go-amused/pkg/log"
)

// StatusResponse reports the session phase and the stream counters.
type StatusResponse struct {
	State         string       `json:"state"`
	Preset        string       `json:"preset"`
	Stats         client.Stats `json:"stats"`
	Recording     bool         `json:"recording"`
	RecordingPath string       `json:"recording_path,omitempty"`
}

// RecordRequest starts a recording to the given path.
type RecordRequest struct {
	Path string `json:"path"`
}

// HeartRateResponse is the most recent heart-rate computation.
type HeartRateResponse struct {
	BPM      float64 `json:"bpm"`
	Peaks    int     `json:"peaks"`
	RMSSDMs  float64 `json:"rmssd_ms"`
	HRVValid bool    `json:"hrv_valid"`
}

// FNIRSResponse is the most recent oxygenation computation.
type FNIRSResponse struct {
	HbO2 float64 `json:"hbo2"`
	HbR  float64 `json:"hbr"`
	TSI  float64 `json:"tsi"`
}

type ApiServer struct {
	cfg    *config.Config
	client *client.Client
	Router *mux.Router
}

func NewApiServer(cfg *config.Config, cl *client.Client) *ApiServer {
	s := &ApiServer{
		cfg:    cfg,
		client: cl,
	}
	s.configureRouter()
	return s
}

func (s *ApiServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Api.Address, s.cfg.Api.Port)
	log.Info("Starting API server: %s", addr)
	httpServer := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, s.Router),
		Addr:    addr,
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	subRouter.HandleFunc("/record", s.handleRecordStart()).Methods("POST")
	subRouter.HandleFunc("/record/stop", s.handleRecordStop()).Methods("GET")
	subRouter.HandleFunc("/metrics/heartrate", s.handleHeartRate()).Methods("GET")
	subRouter.HandleFunc("/metrics/fnirs", s.handleFNIRS()).Methods("GET")
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, recording := s.client.Recording()
		status := StatusResponse{
			State:         s.client.Session().State().String(),
			Preset:        string(s.client.Session().Preset()),
			Stats:         s.client.Stats(),
			Recording:     recording,
			RecordingPath: path,
		}
		writeJSON(w, status)
	}
}

func (s *ApiServer) handleRecordStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request := &RecordRequest{}
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if request.Path == "" {
			http.Error(w, "path is required", http.StatusBadRequest)
			return
		}
		if err := s.client.StartRecording(request.Path); err != nil {
			var active client.ErrRecordingActive
			if errors.As(err, &active) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *ApiServer) handleRecordStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.client.StopRecording(); err != nil {
			var noRec client.ErrNoRecording
			if errors.As(err, &noRec) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *ApiServer) handleHeartRate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.client.LastHeartRate()
		if !ok {
			http.Error(w, "no heart rate computed yet", http.StatusNotFound)
			return
		}
		writeJSON(w, HeartRateResponse{
			BPM:      res.BPM,
			Peaks:    res.Peaks,
			RMSSDMs:  res.RMSSDMs,
			HRVValid: res.HRVValid,
		})
	}
}

func (s *ApiServer) handleFNIRS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.client.LastFNIRS()
		if !ok {
			http.Error(w, "no fnirs result computed yet", http.StatusNotFound)
			return
		}
		writeJSON(w, FNIRSResponse{
			HbO2: res.HbO2,
			HbR:  res.HbR,
			TSI:  res.TSI,
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Encoding API response: %v", err)
	}
}

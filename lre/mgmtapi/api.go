// Copyright 2021 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mgmtapi implements the http status API of the redundancy device.
package mgmtapi

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsrprp/hsrprp/lre"
	"github.com/hsrprp/hsrprp/lre/node"
)

// Problem types.
const (
	BadRequest    = "/problems/bad-request"
	NotFound      = "/problems/not-found"
	InternalError = "/problems/internal-error"
)

// Problem is an RFC 7807 error response.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Device is the view of the device the API reports on.
type Device interface {
	Info() lre.DeviceInfo
	Ports() []lre.PortInfo
}

// Nodes lists the known nodes.
type Nodes interface {
	Nodes() []node.Info
}

// Server implements the http status API of the device.
type Server struct {
	Device Device
	Nodes  Nodes
}

// Handler registers the API routes on r below baseURL and returns r.
func Handler(s *Server, r chi.Router, baseURL string) http.Handler {
	r.Route(baseURL, func(r chi.Router) {
		r.Get("/info", s.GetInfo)
		r.Get("/ports", s.GetPorts)
		r.Get("/nodes", s.GetNodes)
		r.Get("/nodes/{addr}", s.GetNode)
	})
	return r
}

// GetInfo returns the device status.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Device.Info())
}

// GetPorts returns the ports of the device.
func (s *Server) GetPorts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Device.Ports())
}

// GetNodes returns the node table.
func (s *Server) GetNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Nodes.Nodes())
}

// GetNode returns the node owning the address in the path.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "addr")
	addr, err := net.ParseMAC(raw)
	if err != nil || len(addr) != 6 {
		ErrorResponse(w, Problem{
			Detail: "invalid MAC address: " + raw,
			Status: http.StatusBadRequest,
			Title:  "malformed address",
			Type:   BadRequest,
		})
		return
	}
	want := addr.String()
	for _, n := range s.Nodes.Nodes() {
		if n.AddrA == want || n.AddrB == want {
			writeJSON(w, n)
			return
		}
	}
	ErrorResponse(w, Problem{
		Detail: want,
		Status: http.StatusNotFound,
		Title:  "node not found",
		Type:   NotFound,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		ErrorResponse(w, Problem{
			Detail: err.Error(),
			Status: http.StatusInternalServerError,
			Title:  "unable to marshal response",
			Type:   InternalError,
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(b, '\n'))
}

// ErrorResponse writes a problem response.
func ErrorResponse(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	// no point in catching error here, there is nothing we can do about it anymore.
	_ = enc.Encode(p)
}

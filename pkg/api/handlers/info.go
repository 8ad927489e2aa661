package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/dittoapi/pkg/api/response"
)

// ServiceInfo describes the running service.
type ServiceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"apiPrefix"`
}

// StatusInfo is the body of GET {prefix}/status.
type StatusInfo struct {
	State  string  `json:"state"`
	Uptime float64 `json:"uptime"`
}

// InfoHandler serves the API root and the lifecycle status.
type InfoHandler struct {
	info    ServiceInfo
	state   func() string
	started time.Time
}

// NewInfoHandler creates an info handler. state reports the current
// lifecycle state; nil reports "unknown".
func NewInfoHandler(info ServiceInfo, state func() string, started time.Time) *InfoHandler {
	return &InfoHandler{info: info, state: state, started: started}
}

// Index handles GET {prefix}/.
func (h *InfoHandler) Index(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.info)
}

// Status handles GET {prefix}/status.
func (h *InfoHandler) Status(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if h.state != nil {
		state = h.state()
	}
	response.OK(w, StatusInfo{
		State:  state,
		Uptime: time.Since(h.started).Seconds(),
	})
}

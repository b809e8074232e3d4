package handler

import (
	"net/http"

	"github.com/pkordes/tripsync/internal/domain"
)

// ConnectivityResponse is the body of GET /connectivity.
type ConnectivityResponse struct {
	State domain.ConnectionState `json:"state"`
}

// GetConnectivity handles GET /connectivity: 200 when online, 503 otherwise.
func (s *Server) GetConnectivity(w http.ResponseWriter, _ *http.Request) {
	c := s.deps.Connectivity
	status := http.StatusOK
	if err := c.Check(); err != nil {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ConnectivityResponse{State: c.Current()})
}

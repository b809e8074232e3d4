package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/handler"
)

type mockConnectivity struct {
	state domain.ConnectionState
}

func (m mockConnectivity) Current() domain.ConnectionState { return m.state }

func (m mockConnectivity) Check() error {
	if m.state == domain.Unavailable {
		return domain.ErrConnectivity
	}
	return nil
}

func TestGetConnectivity(t *testing.T) {
	tests := []struct {
		state  domain.ConnectionState
		status int
		body   string
	}{
		{state: domain.Available, status: http.StatusOK, body: `{"state":"available"}`},
		{state: domain.Unavailable, status: http.StatusServiceUnavailable, body: `{"state":"unavailable"}`},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := newHTTPHandler(handler.Deps{Connectivity: mockConnectivity{state: tt.state}})

			rec := do(t, h, http.MethodGet, "/connectivity", nil)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

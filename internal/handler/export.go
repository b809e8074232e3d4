package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripsync/internal/domain"
)

// csvHeaders is the first row of every CSV itinerary.
var csvHeaders = []string{
	"trip_id", "trip_name", "trip_type", "trip_start_date", "trip_end_date",
	"activity_name", "activity_place", "starts_at", "notes", "participants",
}

// ItineraryRow is the JSON shape of one itinerary line.
type ItineraryRow struct {
	TripID        string          `json:"tripId"`
	TripName      string          `json:"tripName"`
	TripType      domain.TripType `json:"tripType,omitempty"`
	TripStartDate string          `json:"tripStartDate,omitempty"`
	TripEndDate   string          `json:"tripEndDate,omitempty"`
	ActivityName  string          `json:"activityName,omitempty"`
	ActivityPlace string          `json:"activityPlace,omitempty"`
	StartsAt      *time.Time      `json:"startsAt,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Participants  []string        `json:"participants"`
}

// ExportItinerary handles GET /trips/itinerary and GET /trips/{id}/itinerary.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportItinerary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Itinerary.Itinerary(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, rows)
		return
	}
	out := make([]ItineraryRow, len(rows))
	for i, row := range rows {
		out[i] = ItineraryRow{
			TripID:        row.TripID,
			TripName:      row.TripName,
			TripType:      row.TripType,
			TripStartDate: row.TripStartDate,
			TripEndDate:   row.TripEndDate,
			ActivityName:  row.ActivityName,
			ActivityPlace: row.ActivityPlace,
			StartsAt:      row.StartsAt,
			Notes:         row.Notes,
			Participants:  nonNil(row.Participants),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows with a header line. Participants within a row are
// pipe-separated so each activity stays on one line.
func writeCSV(w http.ResponseWriter, rows []domain.ItineraryRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	//nolint:errcheck // bytes.Buffer writes do not fail.
	cw.Write(csvHeaders)
	for _, row := range rows {
		//nolint:errcheck
		cw.Write([]string{
			row.TripID,
			row.TripName,
			string(row.TripType),
			row.TripStartDate,
			row.TripEndDate,
			row.ActivityName,
			row.ActivityPlace,
			formatOptionalTime(row.StartsAt),
			row.Notes,
			strings.Join(row.Participants, "|"),
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// formatOptionalTime returns the RFC3339 form of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

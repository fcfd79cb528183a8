package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dvirla/calendar-agent-backend/internal/app"
	"github.com/dvirla/calendar-agent-backend/internal/schedule"
)

// SlotFinder is the minimal interface needed to search free slots.
type SlotFinder interface {
	FreeSlots(ctx context.Context, in app.FreeSlotsInput) ([]schedule.Slot, error)
}

type slotResponse struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type freeSlotsResponse struct {
	Date  string         `json:"date"`
	Slots []slotResponse `json:"slots"`
}

// HandleFreeSlots serves GET /slots?date=YYYY-MM-DD&duration=60&business_hours=true.
func HandleFreeSlots(svc SlotFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}

		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, codeInvalidInterval, "date query parameter required")
			return
		}

		duration := 60
		if raw := r.URL.Query().Get("duration"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidDuration, "duration must be an integer number of minutes")
				return
			}
			duration = parsed
		}

		businessHours := true
		if raw := r.URL.Query().Get("business_hours"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "business_hours must be a boolean")
				return
			}
			businessHours = parsed
		}

		slots, err := svc.FreeSlots(r.Context(), app.FreeSlotsInput{
			Date:              date,
			DurationMinutes:   duration,
			BusinessHoursOnly: businessHours,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := freeSlotsResponse{Date: date, Slots: make([]slotResponse, 0, len(slots))}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, slotResponse{
				StartTime:       s.Start.Format("15:04"),
				EndTime:         s.End.Format("15:04"),
				DurationMinutes: duration,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

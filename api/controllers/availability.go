package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindbridge-care/mindbridge-backend/api/middleware"
	"github.com/mindbridge-care/mindbridge-backend/api/responses"
	"github.com/mindbridge-care/mindbridge-backend/api/validators"
	"github.com/mindbridge-care/mindbridge-backend/internal/availability"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
)

type slotBody struct {
	StartTime       string `json:"start_time" validate:"required"`
	EndTime         string `json:"end_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes"`
}

type createSlotsBody struct {
	Date  string     `json:"date" validate:"required"`
	Slots []slotBody `json:"slots" validate:"required,min=1,dive"`
}

func currentProfileID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ProfileIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "profile required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "profile required")
	}
	return id, nil
}

// SlotsCreate opens availability slots on the caller's calendar.
func SlotsCreate(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}
		counsellorID, err := currentProfileID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createSlotsBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := time.Parse(dateLayout, body.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD"))
			return
		}

		inputs := make([]availability.SlotInput, 0, len(body.Slots))
		for _, slot := range body.Slots {
			inputs = append(inputs, availability.SlotInput{
				StartTime:       slot.StartTime,
				EndTime:         slot.EndTime,
				DurationMinutes: slot.DurationMinutes,
			})
		}

		created, err := svc.CreateSlots(r.Context(), counsellorID, availability.CreateSlotsInput{
			Date:  date,
			Slots: inputs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// SlotsList returns the caller's calendar over a date window.
func SlotsList(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}
		counsellorID, err := currentProfileID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := parseDateQuery(r, "from", time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parseDateQuery(r, "to", from.AddDate(0, 0, 14))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slots, err := svc.ListSlots(r.Context(), counsellorID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, slots)
	}
}

// PublicSlots lists a counsellor's bookable slots for one date.
func PublicSlots(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		counsellorID, err := uuid.Parse(chi.URLParam(r, "counsellorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id must be a uuid"))
			return
		}
		date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date query must be YYYY-MM-DD"))
			return
		}

		slots, err := svc.PublicForDate(r.Context(), counsellorID, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, slots)
	}
}

func parseDateQuery(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, key+" query must be YYYY-MM-DD")
	}
	return parsed, nil
}

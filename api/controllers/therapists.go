package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mindbridge-care/mindbridge-backend/api/responses"
	"github.com/mindbridge-care/mindbridge-backend/api/validators"
	"github.com/mindbridge-care/mindbridge-backend/internal/therapists"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/pagination"
)

// TherapistList serves the filtered public directory.
func TherapistList(svc therapists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		filter, err := parseDirectoryFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// TherapistDetail serves one public profile with recent reviews.
func TherapistDetail(svc therapists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "counsellorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "counsellor id must be a uuid"))
			return
		}
		reviewPage, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), id, reviewPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// CounsellorDashboard serves the caller's practice summary.
func CounsellorDashboard(svc therapists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dash, err := svc.DashboardForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}

func parseDirectoryFilter(r *http.Request) (therapists.ListFilter, error) {
	query := r.URL.Query()
	filter := therapists.ListFilter{
		Search: strings.TrimSpace(query.Get("search")),
		Sort:   therapists.SortOrder(query.Get("sort")),
	}

	if raw := query.Get("specialization_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "specialization_id must be numeric")
		}
		filter.SpecializationID = uint(id)
	}
	if raw := query.Get("language_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "language_id must be numeric")
		}
		filter.LanguageID = uint(id)
	}
	if raw := query.Get("gender"); raw != "" {
		gender, err := enums.ParseGender(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "unknown gender filter")
		}
		filter.Gender = &gender
	}
	if raw := query.Get("max_fee"); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "max_fee must be a decimal amount")
		}
		filter.MaxFee = &fee
	}

	page, err := parsePageParams(r)
	if err != nil {
		return filter, err
	}
	filter.Page = page
	return filter, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Offset: offset}, nil
}

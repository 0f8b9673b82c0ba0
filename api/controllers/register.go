package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mindbridge-care/mindbridge-backend/api/responses"
	"github.com/mindbridge-care/mindbridge-backend/api/validators"
	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	"github.com/mindbridge-care/mindbridge-backend/internal/auth"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

type taxonomyRefBody struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type clientDetailsBody struct {
	DateOfBirth    *string `json:"date_of_birth,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	EmergencyName  *string `json:"emergency_contact_name,omitempty"`
	EmergencyPhone *string `json:"emergency_contact_phone,omitempty"`
}

type counsellorDetailsBody struct {
	LicenseNumber   string            `json:"license_number" validate:"required"`
	Bio             *string           `json:"bio,omitempty"`
	Gender          *string           `json:"gender,omitempty"`
	YearsExperience int               `json:"years_experience"`
	SessionFee      decimal.Decimal   `json:"session_fee"`
	SessionDuration int               `json:"session_duration_minutes"`
	MeetLink        *string           `json:"meet_link,omitempty"`
	Specializations []taxonomyRefBody `json:"specializations,omitempty"`
	Approaches      []taxonomyRefBody `json:"approaches,omitempty"`
	Languages       []taxonomyRefBody `json:"languages,omitempty"`
	AgeGroups       []string          `json:"age_groups,omitempty"`
}

type registerBody struct {
	Email      string                 `json:"email" validate:"required,email"`
	Password   string                 `json:"password" validate:"required,min=8"`
	FirstName  string                 `json:"first_name" validate:"required"`
	LastName   string                 `json:"last_name" validate:"required"`
	Phone      *string                `json:"phone,omitempty"`
	Role       string                 `json:"role" validate:"required"`
	Client     *clientDetailsBody     `json:"client,omitempty"`
	Counsellor *counsellorDetailsBody `json:"counsellor,omitempty"`
}

// AuthRegister onboards a new account and logs it straight in.
func AuthRegister(reg accounts.Service, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil || svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body registerBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := buildRegisterRequest(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := reg.Register(r.Context(), req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-MB-Token", result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func buildRegisterRequest(body registerBody) (accounts.RegisterRequest, error) {
	role, err := enums.ParseUserRole(body.Role)
	if err != nil {
		return accounts.RegisterRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "role must be client or counsellor")
	}

	req := accounts.RegisterRequest{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		Role:      role,
	}

	if body.Client != nil {
		details := &accounts.ClientDetails{
			EmergencyName:  body.Client.EmergencyName,
			EmergencyPhone: body.Client.EmergencyPhone,
		}
		if body.Client.DateOfBirth != nil {
			dob, err := time.Parse(dateLayout, *body.Client.DateOfBirth)
			if err != nil {
				return accounts.RegisterRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "date_of_birth must be YYYY-MM-DD")
			}
			details.DateOfBirth = &dob
		}
		if body.Client.Gender != nil {
			gender, err := enums.ParseGender(*body.Client.Gender)
			if err != nil {
				return accounts.RegisterRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown gender")
			}
			details.Gender = &gender
		}
		req.Client = details
	}

	if body.Counsellor != nil {
		details := &accounts.CounsellorDetails{
			LicenseNumber:   body.Counsellor.LicenseNumber,
			Bio:             body.Counsellor.Bio,
			YearsExperience: body.Counsellor.YearsExperience,
			SessionFee:      body.Counsellor.SessionFee,
			SessionDuration: body.Counsellor.SessionDuration,
			MeetLink:        body.Counsellor.MeetLink,
			Specializations: toTaxonomyRefs(body.Counsellor.Specializations),
			Approaches:      toTaxonomyRefs(body.Counsellor.Approaches),
			Languages:       toTaxonomyRefs(body.Counsellor.Languages),
			AgeGroups:       body.Counsellor.AgeGroups,
		}
		if body.Counsellor.Gender != nil {
			gender, err := enums.ParseGender(*body.Counsellor.Gender)
			if err != nil {
				return accounts.RegisterRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown gender")
			}
			details.Gender = &gender
		}
		req.Counsellor = details
	}

	return req, nil
}

func toTaxonomyRefs(in []taxonomyRefBody) []accounts.TaxonomyRef {
	out := make([]accounts.TaxonomyRef, 0, len(in))
	for _, ref := range in {
		out = append(out, accounts.TaxonomyRef{ID: ref.ID, Name: ref.Name})
	}
	return out
}

package controllers

import (
	"net/http"

	"github.com/mindbridge-care/mindbridge-backend/api/responses"
	"github.com/mindbridge-care/mindbridge-backend/internal/accounts"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
)

// AccountMe returns the caller's identity and role profile.
func AccountMe(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

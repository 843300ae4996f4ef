package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitpulse/checkout-gateway/api/responses"
	incidentsvc "github.com/fitpulse/checkout-gateway/internal/incidents"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// ListOpenIncidents returns charged-but-unrecorded payments awaiting manual
// reconciliation.
func ListOpenIncidents(svc incidentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "incidents service unavailable"))
			return
		}

		open, err := svc.ListOpen(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, open)
	}
}

// ResolveIncident stamps an incident as reconciled.
func ResolveIncident(svc incidentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "incidents service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "incidentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid incident id"))
			return
		}

		if err := svc.Resolve(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "resolved"})
	}
}

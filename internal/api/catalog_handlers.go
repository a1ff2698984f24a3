package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salonelite/salon-booking/internal/catalog"
)

func listServicesHandler(cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := cat.Services(r.Context())
		if err != nil {
			handleCatalogError(w, err)
			return
		}
		if services == nil {
			services = []catalog.Service{}
		}
		writeJSON(w, http.StatusOK, services)
	}
}

func getServiceHandler(cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := cat.Service(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	}
}

func listStylistsHandler(cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stylists, err := cat.Stylists(r.Context())
		if err != nil {
			handleCatalogError(w, err)
			return
		}
		if stylists == nil {
			stylists = []catalog.Stylist{}
		}
		writeJSON(w, http.StatusOK, stylists)
	}
}

func getStylistHandler(cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := cat.Stylist(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// upsertServiceHandler serves both POST /services and PUT /services/{id};
// a URL id wins over the body.
func upsertServiceHandler(cw catalog.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s catalog.Service
		if err := decodeJSON(r, &s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if id := chi.URLParam(r, "id"); id != "" {
			s.ID = id
		}
		if err := cw.UpsertService(r.Context(), s); err != nil {
			handleCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func deleteServiceHandler(cw catalog.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cw.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func upsertStylistHandler(cw catalog.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s catalog.Stylist
		if err := decodeJSON(r, &s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if id := chi.URLParam(r, "id"); id != "" {
			s.ID = id
		}
		if err := cw.UpsertStylist(r.Context(), s); err != nil {
			handleCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func deleteStylistHandler(cw catalog.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cw.DeleteStylist(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, catalog.ErrStylistNotFound):
		writeError(w, http.StatusNotFound, "stylist_not_found", err.Error())
	case errors.Is(err, catalog.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, "invalid_catalog_entry", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

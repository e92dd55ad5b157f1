package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"healthdir/internal/adapters/uploads"
	"healthdir/internal/app"
	"healthdir/internal/domain"
)

type Handlers struct {
	Q           *app.QueryService
	Admin       *app.AdminService
	Auth        *app.AuthService
	SlugWorkers int
	// Ping reports store health for /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

type RouteOptions struct {
	// RequireAdmin guards every /admin route except login with a bearer token.
	RequireAdmin bool
	// LoginLimiter throttles POST /admin/login; nil disables throttling.
	LoginLimiter *IPRateLimiter
	// UploadDir is served under /uploads/ when set.
	UploadDir string
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) MountHandlers(h *Handlers, o RouteOptions) {
	s.mux.Get("/health", h.health)

	if o.UploadDir != "" {
		fs := http.StripPrefix(uploads.PublicPrefix, http.FileServer(http.Dir(o.UploadDir)))
		s.mux.Handle(uploads.PublicPrefix+"*", fs)
	}

	s.mux.Route("/public", func(r chi.Router) {
		r.Get("/treatments", h.publicTreatments)
		r.Get("/treatments/{categorySlug}", h.publicTreatmentsByCategory)
		r.Get("/hospitals/{slug}", h.publicHospital)
		r.Get("/hospitals/{hospitalId}/doctors", h.publicHospitalDoctors)
		r.Get("/doctors/{slug}", h.publicDoctor)
		r.Get("/top-doctors", h.publicTopDoctors)
	})

	s.mux.Route("/admin", func(r chi.Router) {
		if o.LoginLimiter != nil {
			r.With(o.LoginLimiter.Middleware).Post("/login", h.login)
		} else {
			r.Post("/login", h.login)
		}

		r.Group(func(r chi.Router) {
			if o.RequireAdmin {
				r.Use(RequireAdmin(h.Auth))
			}
			r.Get("/fix-slugs", h.fixSlugs)

			r.Post("/hospitals", h.createHospital)
			r.Get("/hospitals", h.listHospitals)
			r.Get("/hospitals/{id}", h.getHospital)
			r.Put("/hospitals/{id}", h.updateHospital)
			r.Delete("/hospitals/{id}", h.deleteHospital)

			r.Post("/treatments", h.createTreatment)
			r.Get("/treatments", h.listTreatments)
			r.Get("/treatments/{id}", h.getTreatment)
			r.Put("/treatments/{id}", h.updateTreatment)
			r.Delete("/treatments/{id}", h.deleteTreatment)

			r.Post("/doctors", h.createDoctor)
			r.Get("/doctors", h.listDoctors)
			r.Get("/doctors/{id}", h.getDoctor)
			r.Put("/doctors/{id}", h.updateDoctor)
			r.Delete("/doctors/{id}", h.deleteDoctor)
		})
	})
}

/********** response helpers **********/

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusOf maps the domain error taxonomy onto HTTP. Malformed encoded
// blobs are reported as server errors, like any unexpected failure.
func statusOf(err error) int {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &ve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("request failed")
	}
	writeJSONError(w, status, err.Error())
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body, nil
}

// writeCacheable writes v with a weak ETag and answers 304 when the client
// already holds the same representation.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body, err := calcETagAndBody(v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Error().Err(err).Msg("write response body failed")
	}
}

/********** health **********/

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

/********** public **********/

func (h *Handlers) publicTreatments(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.Treatments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) publicTreatmentsByCategory(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.TreatmentsByCategory(r.Context(), chi.URLParam(r, "categorySlug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) publicHospital(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.HospitalBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) publicHospitalDoctors(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.HospitalDoctors(r.Context(), chi.URLParam(r, "hospitalId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) publicDoctor(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.DoctorBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) publicTopDoctors(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.TopDoctors(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

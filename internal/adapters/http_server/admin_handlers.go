package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthdir/internal/app"
	"healthdir/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type deleted struct {
	Message string `json:"message"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	in, _, cleanup, err := readFields(r)
	defer cleanup()
	if err != nil {
		writeError(w, r, err)
		return
	}
	req := loginRequest{Username: str(in["username"]), Password: str(in["password"])}
	res, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func (h *Handlers) fixSlugs(w http.ResponseWriter, r *http.Request) {
	res, err := h.Admin.FixSlugs(r.Context(), h.SlugWorkers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// withBody decodes the request body and hands it to fn, releasing any
// uploaded file afterwards.
func withBody(w http.ResponseWriter, r *http.Request, fn func(app.Fields, *domain.Upload)) {
	in, img, cleanup, err := readFields(r)
	defer cleanup()
	if err != nil {
		writeError(w, r, err)
		return
	}
	fn(in, img)
}

func respond[T any](w http.ResponseWriter, r *http.Request, status int, v T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

/********** hospitals **********/

func (h *Handlers) createHospital(w http.ResponseWriter, r *http.Request) {
	withBody(w, r, func(in app.Fields, img *domain.Upload) {
		out, err := h.Admin.CreateHospital(r.Context(), in, img)
		respond(w, r, http.StatusCreated, out, err)
	})
}

func (h *Handlers) listHospitals(w http.ResponseWriter, r *http.Request) {
	out, err := h.Admin.ListHospitals(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handlers) getHospital(w http.ResponseWriter, r *http.Request) {
	out, err := h.Admin.GetHospital(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handlers) updateHospital(w http.ResponseWriter, r *http.Request) {
	withBody(w, r, func(in app.Fields, img *domain.Upload) {
		out, err := h.Admin.UpdateHospital(r.Context(), chi.URLParam(r, "id"), in, img)
		respond(w, r, http.StatusOK, out, err)
	})
}

func (h *Handlers) deleteHospital(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteHospital(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted{Message: "Hospital deleted"}, err)
}

/********** treatments **********/

func (h *Handlers) createTreatment(w http.ResponseWriter, r *http.Request) {
	withBody(w, r, func(in app.Fields, _ *domain.Upload) {
		out, err := h.Admin.CreateTreatment(r.Context(), in)
		respond(w, r, http.StatusCreated, out, err)
	})
}

func (h *Handlers) listTreatments(w http.ResponseWriter, r *http.Request) {
	out, err := h.Admin.ListTreatments(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handlers) getTreatment(w http.ResponseWriter, r *http.Request) {
	out, err := h.Admin.GetTreatment(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handlers) updateTreatment(w http.ResponseWriter, r *http.Request) {
	withBody(w, r, func(in app.Fields, _ *domain.Upload) {
		out, err := h.Admin.UpdateTreatment(r.Context(), chi.URLParam(r, "id"), in)
		respond(w, r, http.StatusOK, out, err)
	})
}

func (h *Handlers) deleteTreatment(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteTreatment(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted{Message: "Treatment deleted"}, err)
}

/********** doctors **********/

func (h *Handlers) createDoctor(w http.ResponseWriter, r *http.Request) {
	withBody(w, r, func(in app.Fields, img *domain.Upload) {
		out, err := h.Admin.CreateDoctor(r.Context(), in, img)
		respond(w, r, http.StatusCreated, out, err)
	})
}

func (h *Handlers) listDoctors(w http.ResponseWriter, r *http.Request) {
	out, err := h.Admin.ListDoctors(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handlers) getDoctor(w http.ResponseWriter, r *http.Request) {
	out, err := h.Admin.GetDoctor(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handlers) updateDoctor(w http.ResponseWriter, r *http.Request) {
	withBody(w, r, func(in app.Fields, img *domain.Upload) {
		out, err := h.Admin.UpdateDoctor(r.Context(), chi.URLParam(r, "id"), in, img)
		respond(w, r, http.StatusOK, out, err)
	})
}

func (h *Handlers) deleteDoctor(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteDoctor(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted{Message: "Doctor deleted"}, err)
}

package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// view is the body of every message response; redirect names the page the
// browser should show next.
type view struct {
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg, redirect string) {
	writeJSON(w, code, view{Error: msg, Redirect: redirect})
}

// internalError logs an infrastructure failure and answers with the generic message.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error, msg, redirect string) {
	h.log().WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"route":      r.URL.Path,
	}).Error("request failed")
	writeError(w, http.StatusInternalServerError, msg, redirect)
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"wbuilder/internal/domain"
	"wbuilder/internal/httputil"
)

// PathParam extracts a required path value, writing a 400 if it is missing
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		httputil.RespondKind(w, http.StatusBadRequest, domain.KindInvalidInput, label+" is required")
		return "", false
	}
	return value, true
}

// QueryInt parses an optional integer query parameter
func QueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// parseBody decodes the JSON body, writing a 400 on failure
func parseBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		httputil.RespondKind(w, http.StatusBadRequest, domain.KindInvalidInput, err.Error())
		return false
	}
	return true
}

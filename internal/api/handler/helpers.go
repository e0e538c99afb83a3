package handler

import (
	"net/http"

	mw "github.com/edvin/hostpanel/internal/api/middleware"
	"github.com/edvin/hostpanel/internal/api/request"
	"github.com/edvin/hostpanel/internal/api/response"
	"github.com/edvin/hostpanel/internal/core"
)

// actor returns the authenticated caller. Routes using it sit behind
// RequireAuth.
func actor(r *http.Request) core.Actor {
	return mw.GetIdentity(r.Context()).Actor()
}

// pathID parses a URL ID parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := request.PathID(r, name)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// queryID parses an optional ID query parameter, writing a 400 on failure.
func queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	id, err := request.QueryID(r, name)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return id, true
}

func limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := request.Limit(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return n, true
}

// decode reads a service input body, writing a 400 on malformed JSON.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := request.DecodeJSON(r, v); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeList writes items as a JSON array; nil becomes [].
func writeList[T any](w http.ResponseWriter, r *http.Request, items []T, err error) {
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	response.WriteJSON(w, http.StatusOK, items)
}

// writeResult writes v with status, or the service error.
func writeResult(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, status, v)
}

func writeDeleted(w http.ResponseWriter, r *http.Request, what string, err error) {
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteMessage(w, what+" deleted successfully")
}

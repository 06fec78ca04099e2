package devtools

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/sweetstate/internal/errors"
	"github.com/vango-dev/sweetstate/pkg/store"
)

// Handler returns the devtools HTTP API for r:
//
//	GET /stores       every live instance
//	GET /stores/{id}  one instance by registry id
//	GET /ws           websocket stream of Messages
func Handler(r *store.Registry, hub *Hub) http.Handler {
	router := chi.NewRouter()

	router.Get("/stores", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, describeAll(r))
	})

	router.Get("/stores/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		s, ok := r.Lookup(id)
		if !ok {
			err := errors.New("S402").WithDetail("No live instance with id " + id + ".")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(err.FormatJSON()))
			return
		}
		writeJSON(w, http.StatusOK, Describe(s))
	})

	router.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		hub.ServeWS(r, w, req)
	})

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

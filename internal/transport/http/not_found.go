package http

import (
	"fmt"
	"net/http"
)

// NotFoundHandler answers any route outside the action and slot surface with
// the service's JSON error envelope, naming the path so misrouted clients
// can see what they asked for.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("no such endpoint: %s", r.URL.Path))
	})
}

package httpx

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware = func(next http.Handler) http.Handler

// Chain applies middlewares to h so that the first middleware listed is the
// outermost wrapper (runs first on the way in).
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

package handler

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/composehq/composeweb/internal/auth"
)

// statusWriter captures the response code for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Logging logs method, path, status, and duration for every request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

// Recovery turns panics into 500s instead of dropping the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic on %s %s: %v", r.Method, r.URL.Path, rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// AuthGuard redirects anonymous requests under the guarded path prefixes to
// the login page, carrying the original path in a redirect parameter so
// login can send the user back. An empty prefix list guards every path.
func AuthGuard(deps *Deps, loginPath string, guarded []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pathGuarded(r.URL.Path, guarded) {
				next.ServeHTTP(w, r)
				return
			}
			svc := deps.authService(sessionOf(r))
			if !svc.HasIdentity() {
				target := loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
				redirect(w, r, target)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func pathGuarded(path string, guarded []string) bool {
	if len(guarded) == 0 {
		return true
	}
	for _, prefix := range guarded {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// ACLGuard enforces path-prefix role rules. The longest matching prefix
// wins; paths with no matching rule pass through.
func ACLGuard(deps *Deps, acl *auth.ACL, rules map[string][]string, denyMessage string) func(http.Handler) http.Handler {
	if denyMessage == "" {
		denyMessage = "Forbidden"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			required := auth.MatchRule(r.URL.Path, rules)
			if required == nil {
				next.ServeHTTP(w, r)
				return
			}
			identity := deps.authService(sessionOf(r)).CurrentIdentity()
			if !acl.Authorize(identity, required) {
				http.Error(w, denyMessage, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

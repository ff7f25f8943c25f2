package server

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/cors"

	"github.com/TobiSchelling/DraftAnalyzer/internal/api"
)

// newAPIProxy passes /api/* through to the backend so browser scripts and the
// front end share one origin.
func newAPIProxy(baseURL string, origins []string) (http.Handler, error) {
	target, err := url.Parse(baseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if id := api.RequestIDFrom(pr.In.Context()); id != "" {
				pr.Out.Header.Set(api.RequestIDHeader, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("Proxy error for %s %s: %v", r.Method, r.URL.Path, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"detail":"backend unavailable"}`))
		},
	}

	c := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", api.RequestIDHeader},
		ExposedHeaders:   []string{api.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})

	// chi's Mount leaves the /api prefix on the path; SetURL joins the rest onto
	// the target's own path.
	return c(http.StripPrefix("/api", proxy)), nil
}

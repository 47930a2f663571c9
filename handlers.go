package main

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"deal-scout/pkg/api"
	"deal-scout/pkg/auth"
	"deal-scout/pkg/config"
	"deal-scout/pkg/models"
	"deal-scout/pkg/search"
)

type server struct {
	search   *search.Service
	identity auth.Exchanger
	ebay     config.EbayConfig
	log      zerolog.Logger
	timeout  time.Duration
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/", docsHandler)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/search", s.searchHandler)
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.searchHandler)
		r.Get("/oauth/callback", s.oauthCallbackHandler)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteNotFound(w, "Not found: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed. Use GET.", nil)
	})

	return otelhttp.NewHandler(r, "deal-scout")
}

func docsHandler(w http.ResponseWriter, r *http.Request) {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Deal Scout API"),
		),
	)
	if err != nil {
		api.WriteInternalServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// parseIntParam returns 0 when the value is missing or not an integer so the
// search service falls back to its default limit.
func parseIntParam(q url.Values, name string) int {
	n, err := strconv.Atoi(q.Get(name))
	if err != nil {
		return 0
	}
	return n
}

func (s *server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := s.search.Search(r.Context(), search.Request{
		Query:          q.Get("q"),
		Limit:          parseIntParam(q, "limit"),
		ReferencePrice: q.Get("vinted_price"),
	})
	if err != nil {
		log := zerolog.Ctx(r.Context())
		if models.KindOf(err) == models.KindValidation {
			log.Warn().Err(err).Msg("Rejected search request")
		} else {
			log.Error().Err(err).Msg("Search failed")
		}
		api.WriteModelError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, res)
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Token obtained</h2>
<p>Copy the <strong>refresh_token</strong> below into the EBAY_REFRESH_TOKEN environment variable.</p>
<pre>{{.}}</pre>
</body>
</html>
`))

// oauthCallbackHandler completes the one-time authorization code flow and
// shows the refresh token to the operator. It does not touch the token
// cache.
func (s *server) oauthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	if s.ebay.ClientID == "" || s.ebay.ClientSecret == "" {
		http.Error(w, "Client ID/secret not set", http.StatusInternalServerError)
		return
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.ebay.RedirectURI)

	tok, err := s.identity.Exchange(r.Context(), s.ebay.ClientID, s.ebay.ClientSecret, form)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("OAuth token error")
		api.WriteModelError(w, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Bool("has_refresh_token", tok.RefreshToken != "").Msg("OAuth token obtained")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := callbackPage.Execute(w, tok.RefreshToken); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Error rendering callback page")
	}
}

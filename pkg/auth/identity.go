package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"deal-scout/pkg/logger"
	"deal-scout/pkg/models"
	"deal-scout/pkg/upstream"
)

// IdentityClient exchanges grants at the OAuth token endpoint using HTTP
// Basic client authentication.
type IdentityClient struct {
	HTTP     *upstream.Client
	TokenURL string
}

func NewIdentityClient(client *upstream.Client, tokenURL string) *IdentityClient {
	return &IdentityClient{HTTP: client, TokenURL: tokenURL}
}

func basicAuth(clientID, clientSecret string) string {
	return base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
}

func (c *IdentityClient) Exchange(ctx context.Context, clientID, clientSecret string, form url.Values) (*TokenResponse, error) {
	basic := basicAuth(clientID, clientSecret)

	hdr := http.Header{}
	hdr.Set("Content-Type", "application/x-www-form-urlencoded")
	hdr.Set("Authorization", "Basic "+basic)

	log := zerolog.Ctx(ctx)
	log.Debug().
		Str("basic_auth", logger.Redact(basic)).
		Str("grant_type", form.Get("grant_type")).
		Msg("Token exchange")

	resp, err := c.HTTP.Do(http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()), hdr)
	if err != nil {
		log.Error().Err(err).Msg("Token request failed")
		return nil, &models.Error{
			Kind:    models.KindUpstreamAuth,
			Message: "Failed to obtain eBay token",
			Details: models.RawDetails([]byte(err.Error())),
			Err:     err,
		}
	}

	if !resp.OK() {
		log.Error().Int("status", resp.StatusCode).RawJSON("body", models.RawDetails(resp.Body)).Msg("Token error")
		return nil, &models.Error{
			Kind:    models.KindUpstreamAuth,
			Message: "Failed to obtain eBay token",
			Details: models.RawDetails(resp.Body),
		}
	}

	var tok TokenResponse
	if err := json.Unmarshal(resp.Body, &tok); err != nil || tok.AccessToken == "" {
		log.Error().Err(err).RawJSON("body", models.RawDetails(resp.Body)).Msg("Malformed token response")
		return nil, &models.Error{
			Kind:    models.KindUpstreamAuth,
			Message: "Failed to obtain eBay token",
			Details: models.RawDetails(resp.Body),
			Err:     err,
		}
	}

	return &tok, nil
}

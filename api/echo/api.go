//nolint:varnamelen
package echo

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	bridgeerrors "github.com/synkhq/authbridge/errors"
	"github.com/synkhq/authbridge/internal/bridge"
	"github.com/synkhq/authbridge/internal/metrics"
	"github.com/synkhq/authbridge/internal/provider"
)

//go:embed templates/*.html
var templateFS embed.FS

// defaultCallbackProvider is assumed when the registered redirect URI does
// not carry a provider hint.
const defaultCallbackProvider = "google"

// BridgeAPI holds the HTTP handlers for the authorization bridge.
type BridgeAPI struct {
	service   *bridge.Service
	templates *template.Template
}

// NewBridgeAPI initializes the bridge API.
func NewBridgeAPI(service *bridge.Service) *BridgeAPI {
	return &BridgeAPI{
		service:   service,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// RegisterRoutes registers the bridge routes.
func (a *BridgeAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/", a.RootHandler)
	e.GET("/_health", a.HealthHandler)
	e.GET("/auth/:provider", a.AuthorizeHandler)
	e.GET("/oauth2callback", a.CallbackHandler)
	e.GET("/api/oauth/result", a.ResultHandler)
	e.POST("/api/oauth/refresh", a.RefreshHandler)
}

// RootHandler returns basic service information.
func (a *BridgeAPI) RootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "synk-authbridge",
		"status":  "healthy",
	})
}

// HealthHandler is the liveness probe. No side effects.
func (a *BridgeAPI) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// AuthorizeHandler starts an authorization flow: it resolves the provider,
// mints a state token when the client did not bring one, and redirects the
// browser to the provider's consent screen. The correlation store is not
// touched here.
func (a *BridgeAPI) AuthorizeHandler(c echo.Context) error {
	providerName := c.Param("provider")

	authURL, state, err := a.service.AuthorizationURL(providerName, c.QueryParam("state"))
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotFound) {
			return c.JSON(http.StatusNotFound, bridgeerrors.NewUnknownProvider(providerName))
		}
		log.Error().Err(err).Str("provider", providerName).Msg("Failed to build authorization URL")
		return c.JSON(http.StatusInternalServerError, bridgeerrors.NewServerError("failed to build authorization URL"))
	}

	log.Info().Str("provider", providerName).Int("state_length", len(state)).Msg("Authorization flow started")

	return c.Redirect(http.StatusFound, authURL)
}

// CallbackHandler receives the provider's redirect. Provider-reported errors
// and missing parameters are rejected before any store interaction; only a
// resolved exchange (success or failure) writes a correlation entry.
func (a *BridgeAPI) CallbackHandler(c echo.Context) error {
	if providerErr := c.QueryParam("error"); providerErr != "" {
		metrics.CallbacksRejectedTotal.Inc()
		log.Warn().Str("provider_error", providerErr).Msg("Provider reported an authorization error")
		return a.renderErrorPage(c, http.StatusBadRequest,
			"The provider reported an error: "+providerErr+". Close this tab and restart the connection from Synk.")
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		metrics.CallbacksRejectedTotal.Inc()
		log.Warn().Bool("has_code", code != "").Bool("has_state", state != "").Msg("Callback missing parameters")
		return a.renderErrorPage(c, http.StatusBadRequest,
			"The callback is missing required parameters. Close this tab and restart the connection from Synk.")
	}

	providerName := c.QueryParam("provider")
	if providerName == "" {
		providerName = defaultCallbackProvider
	}

	res, err := a.service.CompleteAuthorization(c.Request().Context(), providerName, code, state)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotFound) {
			metrics.CallbacksRejectedTotal.Inc()
			return a.renderErrorPage(c, http.StatusBadRequest,
				"Unknown provider in callback. Close this tab and restart the connection from Synk.")
		}
		log.Error().Err(err).Str("provider", providerName).Msg("Code exchange failed")
		return a.renderErrorPage(c, http.StatusInternalServerError,
			"Exchanging the authorization code failed: "+err.Error()+". Synk will report the failure; restart the connection to retry.")
	}

	return a.renderSuccessPage(c, res.Provider)
}

type resultResponse struct {
	Status string           `json:"status"`
	Tokens *bridge.TokenSet `json:"tokens,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// ResultHandler serves the desktop client's polling loop. Absence of an
// entry is reported as "pending" with HTTP 200, whether the flow is still in
// flight, was already consumed, or never existed; the client keeps its own
// give-up timer. A found entry is consumed as part of this call.
func (a *BridgeAPI) ResultHandler(c echo.Context) error {
	state := c.QueryParam("state")
	if state == "" {
		return c.JSON(http.StatusBadRequest, bridgeerrors.NewMissingState())
	}

	res, err := a.service.PollResult(c.Request().Context(), state)
	if err != nil {
		if errors.Is(err, bridge.ErrResultNotFound) {
			return c.JSON(http.StatusOK, resultResponse{Status: "pending"})
		}
		log.Error().Err(err).Msg("Failed to poll authorization result")
		return c.JSON(http.StatusInternalServerError, bridgeerrors.NewServerError("failed to read authorization result"))
	}

	if res.Status == bridge.StatusFailed {
		return c.JSON(http.StatusOK, resultResponse{Status: string(bridge.StatusFailed), Error: res.Error})
	}

	return c.JSON(http.StatusOK, resultResponse{Status: string(bridge.StatusReady), Tokens: res.Tokens})
}

type refreshRequest struct {
	Provider     string `json:"provider"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshHandler trades a refresh token for a fresh access token.
func (a *BridgeAPI) RefreshHandler(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, bridgeerrors.NewInvalidRequest("malformed request body"))
	}
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, bridgeerrors.NewInvalidRequest("refresh_token is required"))
	}
	if req.Provider == "" {
		req.Provider = defaultCallbackProvider
	}

	tokens, err := a.service.RefreshToken(c.Request().Context(), req.Provider, req.RefreshToken)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotFound) {
			return c.JSON(http.StatusNotFound, bridgeerrors.NewUnknownProvider(req.Provider))
		}
		log.Warn().Err(err).Str("provider", req.Provider).Msg("Token refresh failed")
		return c.JSON(http.StatusUnauthorized, bridgeerrors.NewInvalidRequest("refresh token rejected by provider"))
	}

	return c.JSON(http.StatusOK, tokens)
}

type pageData struct {
	Provider string
	Detail   string
}

func (a *BridgeAPI) renderSuccessPage(c echo.Context, providerName string) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	if err := a.templates.ExecuteTemplate(c.Response(), "success.html", pageData{Provider: providerName}); err != nil {
		log.Error().Err(err).Msg("Failed to render success page")
		return err
	}
	return nil
}

func (a *BridgeAPI) renderErrorPage(c echo.Context, status int, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	if err := a.templates.ExecuteTemplate(c.Response(), "error.html", pageData{Detail: detail}); err != nil {
		log.Error().Err(err).Msg("Failed to render error page")
		return err
	}
	return nil
}

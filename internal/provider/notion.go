package provider

import (
	"golang.org/x/oauth2"
)

// NotionEndpoint holds Notion's OAuth2 endpoints. Notion has no OIDC
// discovery document, the URLs are fixed.
var NotionEndpoint = oauth2.Endpoint{
	AuthURL:   "https://api.notion.com/v1/oauth/authorize",
	TokenURL:  "https://api.notion.com/v1/oauth/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// NewNotion creates the Notion provider. Notion grants access per workspace
// rather than per scope, so no scopes are requested; owner=user asks for a
// user-level grant.
func NewNotion(clientID, clientSecret, redirectURL string) (*Provider, error) {
	return New("notion",
		&oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     NotionEndpoint,
		},
		oauth2.SetAuthURLParam("owner", "user"),
	)
}

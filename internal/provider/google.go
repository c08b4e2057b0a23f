package provider

import (
	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"
)

// GoogleCalendarScope is the narrowest scope Synk needs to mirror calendar
// data.
const GoogleCalendarScope = "https://www.googleapis.com/auth/calendar"

// NewGoogle creates the Google Calendar provider. The flow always requests
// offline access so a refresh token is issued, and forces the consent
// screen so a stale Google-side session cannot silently skip it.
func NewGoogle(clientID, clientSecret, redirectURL string) (*Provider, error) {
	return New("google",
		&oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{GoogleCalendarScope},
			Endpoint:     googleOAuth2.Endpoint,
		},
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)
}

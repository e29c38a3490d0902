package appview

import "time"

const (
	// SessionKey names the durable storage entry holding the serialized
	// {id, password} session.
	SessionKey = "sustc_user"
	// NavStateKey names the storage entry holding the router's navigation
	// state.
	NavStateKey = "cookbook-nav"

	HeaderAuthId       = "Auth-Id"
	HeaderAuthPassword = "Auth-Password"

	RedirectParam = "redirect"

	DefaultAPITimeout = 10 * time.Second
	EnvelopeDelay     = 800 * time.Millisecond
)

// Package auth implements the request-authentication pipeline for ausweis.
//
// A Credential is extracted from request headers once per request and handed
// to a Manager, which dispatches it to the first registered Provider that
// supports the credential kind. Providers validate exactly one kind each:
// username/password against the user store, opaque tokens against the token
// store, plus optional API-key and JWT providers. Keeping "what shape is
// this" (Supports) separate from "validate it" (Authenticate) lets new
// credential kinds join the chain without touching the Filter.
//
// The Filter is HTTP middleware and the single entry point: it turns headers
// into credentials, runs the manager, and either mints a token on the login
// endpoint, injects the authenticated identity into the request context, or
// lets the request continue unauthenticated for downstream authorization to
// judge.
package auth

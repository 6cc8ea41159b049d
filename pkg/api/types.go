package api

// TokenResponse is the login endpoint's success body.
type TokenResponse struct {
	Token string `json:"token"`
}

// IdentityResponse describes the authenticated caller, returned by /whoami.
type IdentityResponse struct {
	Subject     string   `json:"subject"`
	DisplayName string   `json:"display_name,omitempty"`
	Roles       []string `json:"roles"`
}

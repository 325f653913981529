package models

// Claims represents the verified contents of a provider identity token
type Claims struct {
	Subject       string `json:"sub"`            // Stable provider user id
	Email         string `json:"email"`          // User email
	EmailVerified bool   `json:"email_verified"` // Whether the provider verified the email
	Name          string `json:"name"`           // Display name
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Nonce         string `json:"nonce,omitempty"` // Single-use value, empty when the token carries none
}

// Profile returns the provider-derived profile fields used when provisioning a user
func (c *Claims) Profile() Profile {
	return Profile{Name: c.Name, Email: c.Email}
}

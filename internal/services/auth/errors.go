package auth

import "errors"

var (
	// ErrNoSuchAccount means the identity token is valid but no local user is linked to it
	ErrNoSuchAccount = errors.New("No account exists for the given credentials")
	// ErrReusedNonce means the token's nonce was already used to start a session
	ErrReusedNonce = errors.New("The given nonce has been seen before")
	// ErrForbidden means the caller is authenticated but may not perform the action
	ErrForbidden = errors.New("The given credentials were insufficient to perform this action")
	// ErrSignupDisabled means accounts are provisioned on login and explicit signup is off
	ErrSignupDisabled = errors.New("signup is not available for this deployment")
)

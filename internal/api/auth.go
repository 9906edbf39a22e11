package api

import (
	"context"
	"net/http"

	"github.com/sentinl-app/sentinl/client/internal/model/task"
	"github.com/sentinl-app/sentinl/client/internal/session"
)

// Credentials are the register/login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// AuthResult is the token + user pair issued on register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Register creates an account and returns a live token.
func (c *Client) Register(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "register/", creds, &out); err != nil {
		return AuthResult{}, err
	}
	if out.Token == "" {
		return AuthResult{}, &APIError{Message: "register response missing token"}
	}
	return out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "login/", creds, &out); err != nil {
		return AuthResult{}, err
	}
	if out.Token == "" {
		return AuthResult{}, &APIError{Message: "login response missing token"}
	}
	return out, nil
}

// Profile fetches the signed-in user's discipline profile.
func (c *Client) Profile(ctx context.Context) (task.Profile, error) {
	var out task.Profile
	if err := c.doJSON(ctx, http.MethodGet, "profile/", nil, &out); err != nil {
		return task.Profile{}, err
	}
	return out, nil
}

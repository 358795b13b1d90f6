package escuela

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a bearer token. When the client session is a
// TokenStore the token is saved there, so subsequent calls are authenticated.
func (c *Client) Login(ctx context.Context, req LoginRequest, opts ...CallOption) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	var out loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/users/loginUser", buildHeaders(nil, opts...), req, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: %s", ErrLoginFailed, apiErr.Message)
		}
		return "", err
	}
	if !out.Success || out.Token == "" {
		msg := out.Message
		if msg == "" {
			msg = "no token returned"
		}
		return "", fmt.Errorf("%w: %s", ErrLoginFailed, msg)
	}
	if ts, ok := c.Session.(TokenStore); ok {
		if err := ts.SetToken(out.Token); err != nil {
			return "", err
		}
	}
	return out.Token, nil
}

// Logout forgets the stored token. It never contacts the backend.
func (c *Client) Logout() error {
	if ts, ok := c.Session.(TokenStore); ok {
		return ts.Clear()
	}
	return nil
}

// Profile returns the authenticated user with its detail.
func (c *Client) Profile(ctx context.Context, opts ...CallOption) (*Alumno, error) {
	h, err := c.authed(opts...)
	if err != nil {
		return nil, err
	}
	var out Alumno
	if err := c.doJSON(ctx, http.MethodGet, "/user/profile", h, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

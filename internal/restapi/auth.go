package restapi

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	envelope
	Token string `json:"token"`
}

// Login exchanges the password for a bearer token. The caller is expected
// to have rejected an empty password already; this method always issues
// exactly one request, with no retries.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

type verifyResponse struct {
	envelope
	Valid bool `json:"valid"`
}

// Verify checks whether the currently installed token is still accepted by
// the backend.
func (c *Client) Verify(ctx context.Context) (bool, error) {
	var resp verifyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify", nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

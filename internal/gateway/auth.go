package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"storefront/internal/models"
)

type userData struct {
	User models.User `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", credentials{Email: email, Password: password})
}

func (c *Client) Register(ctx context.Context, in *models.RegisterRequest) (*models.AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", in)
}

func (c *Client) authenticate(ctx context.Context, path string, payload interface{}) (*models.AuthResult, error) {
	req, err := jsonRequest(http.MethodPost, path, "", payload)
	if err != nil {
		return nil, err
	}
	result := &models.AuthResult{}
	if err := c.call(ctx, req, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Logout tells the backend the token is done with. Failures are logged and
// swallowed; the local session is cleared regardless.
func (c *Client) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if _, err := c.send(ctx, &request{method: http.MethodPost, path: "/auth/logout", token: token}); err != nil {
		c.log.WithError(err).Debug("Backend logout failed, ignoring")
	}
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var data userData
	if err := c.call(ctx, &request{method: http.MethodGet, path: "/auth/me", token: token}, &data); err != nil {
		return nil, err
	}
	return &data.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update *models.ProfileUpdate) (*models.User, error) {
	req, err := jsonRequest(http.MethodPatch, "/auth/profile", token, update)
	if err != nil {
		return nil, err
	}
	var data userData
	if err := c.call(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data.User, nil
}

// ChangePassword returns the backend confirmation message.
func (c *Client) ChangePassword(ctx context.Context, token string, in *models.ChangePasswordRequest) (string, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/change-password", token, in)
	if err != nil {
		return "", err
	}
	data, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	var out struct {
		Message string `json:"message"`
	}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	if out.Message == "" {
		out.Message = "Password changed successfully"
	}
	return out.Message, nil
}

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Login exchanges credentials for an access token. The exchange is
// form-encoded, with the email sent as "username".
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "login"

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp tokenResponse
	if err := c.sendForm(ctx, op, "/auth/login", form, &resp); err != nil {
		var ge *domain.GatewayError
		if errors.As(err, &ge) && (ge.Status == http.StatusUnauthorized || ge.Status == http.StatusBadRequest) {
			ge.Err = domain.ErrInvalidCredentials
		}
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%s: backend returned no access token", op)
	}
	return resp.AccessToken, nil
}

// Register creates an account. The backend reports a taken email as 409, or
// as 400 with an "already registered" detail.
func (c *Client) Register(ctx context.Context, acc domain.NewAccount) (*domain.Identity, error) {
	const op = "register"

	var rec userRecord
	err := c.sendJSON(ctx, op, http.MethodPost, "/auth/register", registerPayload{
		Email:    acc.Email,
		Password: acc.Password,
		FullName: acc.Name,
	}, &rec)
	if err != nil {
		var ge *domain.GatewayError
		if errors.As(err, &ge) && isEmailTaken(ge) {
			ge.Err = domain.ErrEmailTaken
		}
		return nil, err
	}
	return toIdentityPtr(op, rec)
}

func isEmailTaken(ge *domain.GatewayError) bool {
	if ge.Status == http.StatusConflict {
		return true
	}
	return ge.Status == http.StatusBadRequest && strings.Contains(strings.ToLower(ge.Detail), "already")
}

// CurrentIdentity resolves the identity the bound token belongs to.
func (c *Client) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	const op = "current_identity"

	var rec userRecord
	if err := c.getJSON(ctx, op, "/auth/me", &rec); err != nil {
		return nil, err
	}
	return toIdentityPtr(op, rec)
}

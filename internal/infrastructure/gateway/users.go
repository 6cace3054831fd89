package gateway

import (
	"context"
	"net/http"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

type createUserPayload struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type updateUserPayload struct {
	FullName  *string `json:"full_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Role      *string `json:"role,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.Identity, error) {
	const op = "list_users"

	var recs []userRecord
	if err := c.getJSON(ctx, op, "/users", &recs); err != nil {
		return nil, err
	}
	return normalizeAll(op, recs, toIdentity)
}

func (c *Client) GetUser(ctx context.Context, id string) (*domain.Identity, error) {
	const op = "get_user"

	var rec userRecord
	if err := c.getJSON(ctx, op, "/users/"+escape(id), &rec); err != nil {
		return nil, err
	}
	return toIdentityPtr(op, rec)
}

func (c *Client) CreateUser(ctx context.Context, u domain.NewUser) (*domain.Identity, error) {
	const op = "create_user"

	var rec userRecord
	err := c.sendJSON(ctx, op, http.MethodPost, "/users", createUserPayload{
		FullName:  u.Name,
		Email:     u.Email,
		Password:  u.Password,
		Role:      string(u.Role),
		AvatarURL: u.AvatarURL,
	}, &rec)
	if err != nil {
		return nil, err
	}
	return toIdentityPtr(op, rec)
}

func (c *Client) UpdateUser(ctx context.Context, id string, upd domain.IdentityUpdate) (*domain.Identity, error) {
	const op = "update_user"

	payload := updateUserPayload{
		FullName:  upd.Name,
		Email:     upd.Email,
		AvatarURL: upd.AvatarURL,
	}
	if upd.Role != nil {
		role := string(*upd.Role)
		payload.Role = &role
	}

	var rec userRecord
	if err := c.sendJSON(ctx, op, http.MethodPut, "/users/"+escape(id), payload, &rec); err != nil {
		return nil, err
	}
	return toIdentityPtr(op, rec)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.send(ctx, "delete_user", http.MethodDelete, "/users/"+escape(id), nil, "", nil)
}

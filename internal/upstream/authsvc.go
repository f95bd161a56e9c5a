package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// AuthClient proxies credential checks to the login and registration
// services. The gateway never stores passwords; it only forwards them.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (domain.Profile, error)
	Register(ctx context.Context, req RegisterRequest) error
}

// RegisterRequest carries the registration form as the upstream expects it.
type RegisterRequest struct {
	Email          string `json:"email"`
	Usuario        string `json:"usuario"`
	Senha          string `json:"senha"`
	ConfirmarSenha string `json:"confirmar_senha"`
	Avatar         string `json:"avatar"`
}

type httpAuthClient struct {
	client          *Client
	loginBaseURL    string
	registerBaseURL string
}

// NewAuthClient builds the HTTP-backed client.
func NewAuthClient(client *Client, loginBaseURL, registerBaseURL string) AuthClient {
	return &httpAuthClient{client: client, loginBaseURL: loginBaseURL, registerBaseURL: registerBaseURL}
}

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type loginResponse struct {
	Usuario domain.Profile `json:"usuario"`
}

func (c *httpAuthClient) Login(ctx context.Context, email, password string) (domain.Profile, error) {
	endpoint := fmt.Sprintf("%s/login", c.loginBaseURL)

	var resp loginResponse
	if err := c.client.doJSON(ctx, http.MethodPost, endpoint, loginRequest{Email: email, Senha: password}, &resp); err != nil {
		return domain.Profile{}, err
	}
	return resp.Usuario, nil
}

func (c *httpAuthClient) Register(ctx context.Context, req RegisterRequest) error {
	endpoint := fmt.Sprintf("%s/register", c.registerBaseURL)
	return c.client.doJSON(ctx, http.MethodPost, endpoint, req, nil)
}

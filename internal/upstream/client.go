package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/opsdesk/console-gateway/pkg/util"
)

// Client is the shared HTTP transport to the backend services. All calls
// run under the configured timeout; a hung upstream surfaces as a
// transient failure instead of blocking forever.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds the transport.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// errorBody is the message envelope every backend error response carries.
type errorBody struct {
	Erro             string `json:"erro"`
	Message          string `json:"message"`
	ResponsavelAtual string `json:"responsavel_atual"`
}

func (b errorBody) text() string {
	if b.Erro != "" {
		return b.Erro
	}
	return b.Message
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out when non-nil. Non-2xx responses are mapped to domain
// errors; 409 becomes a distinguished ownership conflict.
func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.String("url", url), zap.Error(err))
		return apperrors.NewUpstreamError("serviço remoto indisponível", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewUpstreamError("falha ao ler resposta do serviço remoto", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorBody
		_ = json.Unmarshal(raw, &envelope)
		message := envelope.text()
		if message == "" {
			message = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
		}
		switch resp.StatusCode {
		case http.StatusConflict:
			details := map[string]any{}
			if envelope.ResponsavelAtual != "" {
				details["responsavel_atual"] = envelope.ResponsavelAtual
			}
			return apperrors.NewConflict(message, details)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.NewUnauthorized(message)
		}
		return apperrors.NewUpstreamError(message, nil)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperrors.NewUpstreamError("resposta inválida do serviço remoto", err)
		}
	}
	return nil
}

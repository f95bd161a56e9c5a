package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// ObservationClient reads and appends an item's observation log on the
// owning backend service.
type ObservationClient interface {
	List(ctx context.Context, desc domain.Descriptor, itemID string) ([]domain.Observation, error)
	Append(ctx context.Context, desc domain.Descriptor, itemID, author, text string) error
}

type httpObservationClient struct {
	client *Client
}

// NewObservationClient builds the HTTP-backed client.
func NewObservationClient(client *Client) ObservationClient {
	return &httpObservationClient{client: client}
}

type observationRecord struct {
	Usuario    string `json:"usuario"`
	Observacao string `json:"observacao"`
	Data       string `json:"data"`
	Timestamp  string `json:"timestamp"`
}

type observationListResponse struct {
	Observacoes []observationRecord `json:"observacoes"`
}

func (c *httpObservationClient) List(ctx context.Context, desc domain.Descriptor, itemID string) ([]domain.Observation, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/observacoes", desc.BaseURL, desc.Name, url.PathEscape(itemID))

	var resp observationListResponse
	if err := c.client.doJSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.Observation, 0, len(resp.Observacoes))
	for _, record := range resp.Observacoes {
		when, label := domain.ParseObservationTimestamp(record.Timestamp, record.Data)
		entries = append(entries, domain.Observation{
			Author:    record.Usuario,
			Text:      record.Observacao,
			Timestamp: when,
			Label:     label,
		})
	}
	domain.SortObservations(entries)
	return entries, nil
}

type observationAppendRequest struct {
	Observacao string `json:"observacao"`
	Usuario    string `json:"usuario"`
}

func (c *httpObservationClient) Append(ctx context.Context, desc domain.Descriptor, itemID, author, text string) error {
	endpoint := fmt.Sprintf("%s/%s/%s/observacao", desc.BaseURL, desc.Name, url.PathEscape(itemID))
	return c.client.doJSON(ctx, http.MethodPut, endpoint, observationAppendRequest{Observacao: text, Usuario: author}, nil)
}

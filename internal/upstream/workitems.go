package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// ItemClient talks to the backend service that owns one work item kind.
// The descriptor passed to each call selects base URL and write flags, so
// a single implementation serves chamados and SARs alike.
type ItemClient interface {
	// List fetches every item of the kind.
	List(ctx context.Context, desc domain.Descriptor) ([]domain.WorkItem, error)

	// Claim assigns the item to owner. On success it returns the owner
	// name the upstream acknowledged; a lost race returns a conflict
	// error carrying the winner's name.
	Claim(ctx context.Context, desc domain.Descriptor, itemID, owner string) (string, error)

	// Release clears the item's assignment.
	Release(ctx context.Context, desc domain.Descriptor, itemID string) error

	// UpdateStatus persists a non-terminal status change.
	UpdateStatus(ctx context.Context, desc domain.Descriptor, itemID string, status domain.Status) error

	// Finalize marks the item completed.
	Finalize(ctx context.Context, desc domain.Descriptor, itemID string) error

	// Cancel marks the item cancelled.
	Cancel(ctx context.Context, desc domain.Descriptor, itemID string) error
}

type httpItemClient struct {
	client *Client
}

// NewItemClient builds the HTTP-backed client.
func NewItemClient(client *Client) ItemClient {
	return &httpItemClient{client: client}
}

func (c *httpItemClient) List(ctx context.Context, desc domain.Descriptor) ([]domain.WorkItem, error) {
	endpoint := fmt.Sprintf("%s/api/%s", desc.BaseURL, desc.Name)

	var records []map[string]any
	if err := c.client.doJSON(ctx, http.MethodGet, endpoint, nil, &records); err != nil {
		return nil, err
	}

	items := make([]domain.WorkItem, 0, len(records))
	for _, record := range records {
		item, ok := normalizeRecord(desc, record)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

type claimRequest struct {
	Responsavel  string `json:"responsavel"`
	ApenasVisual bool   `json:"apenas_visual"`
}

type claimResponse struct {
	ResponsavelNome  string `json:"responsavel_nome"`
	ResponsavelAtual string `json:"responsavel_atual"`
}

func (c *httpItemClient) Claim(ctx context.Context, desc domain.Descriptor, itemID, owner string) (string, error) {
	endpoint := c.actionURL(desc, itemID, "assumir")
	body := claimRequest{Responsavel: owner, ApenasVisual: desc.VisualOnlyWrites}

	var resp claimResponse
	if err := c.client.doJSON(ctx, http.MethodPut, endpoint, body, &resp); err != nil {
		return "", err
	}

	// The service may echo the stored name under either key; fall back
	// to the requested owner when it sends neither.
	switch {
	case resp.ResponsavelNome != "":
		return resp.ResponsavelNome, nil
	case resp.ResponsavelAtual != "":
		return resp.ResponsavelAtual, nil
	}
	return owner, nil
}

type releaseRequest struct {
	ApenasVisual bool `json:"apenas_visual"`
}

func (c *httpItemClient) Release(ctx context.Context, desc domain.Descriptor, itemID string) error {
	endpoint := c.actionURL(desc, itemID, "liberar")
	return c.client.doJSON(ctx, http.MethodPut, endpoint, releaseRequest{ApenasVisual: desc.VisualOnlyWrites}, nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (c *httpItemClient) UpdateStatus(ctx context.Context, desc domain.Descriptor, itemID string, status domain.Status) error {
	endpoint := fmt.Sprintf("%s/api/%s/%s", desc.BaseURL, desc.Name, url.PathEscape(itemID))
	return c.client.doJSON(ctx, http.MethodPut, endpoint, statusRequest{Status: string(status)}, nil)
}

func (c *httpItemClient) Finalize(ctx context.Context, desc domain.Descriptor, itemID string) error {
	return c.client.doJSON(ctx, http.MethodPut, c.actionURL(desc, itemID, "finalizar"), nil, nil)
}

func (c *httpItemClient) Cancel(ctx context.Context, desc domain.Descriptor, itemID string) error {
	return c.client.doJSON(ctx, http.MethodPut, c.actionURL(desc, itemID, "cancelar"), nil, nil)
}

func (c *httpItemClient) actionURL(desc domain.Descriptor, itemID, action string) string {
	return fmt.Sprintf("%s/%s/%s/%s", desc.BaseURL, desc.Name, url.PathEscape(itemID), action)
}

// Field names the two services use for the same concepts. SAR records key
// on the SAR number and spread ownership across three columns.
var (
	idKeys    = []string{"id", "numeroSar", "NumSar"}
	ownerKeys = []string{"responsavel", "responsavelHub", "responsavelDTC"}
	titleKeys = []string{"titulo", "descricao", "cliente"}
)

// firstString returns the first non-empty value among keys, marking every
// present key consumed. Used for column families that mean one thing
// spread over several names.
func firstString(record map[string]any, keys []string, consumed map[string]bool) string {
	var found string
	for _, key := range keys {
		value := stringValue(record[key])
		if found == "" && value != "" {
			found = value
		}
		if _, present := record[key]; present {
			consumed[key] = true
		}
	}
	return found
}

// normalizeRecord maps one raw upstream record into a WorkItem. Records
// without a usable identifier are skipped rather than failing the whole
// list.
func normalizeRecord(desc domain.Descriptor, record map[string]any) (domain.WorkItem, bool) {
	consumed := map[string]bool{}

	id := firstString(record, idKeys, consumed)
	if id == "" {
		return domain.WorkItem{}, false
	}

	item := domain.WorkItem{
		ID:       id,
		Owner:    firstString(record, ownerKeys, consumed),
		Priority: desc.DefaultPriority,
		Status:   domain.StatusPending,
		Details:  map[string]string{},
	}

	// The remaining title candidates stay in Details; only the one that
	// became the title is folded in.
	for _, key := range titleKeys {
		if value := stringValue(record[key]); value != "" {
			item.Title = value
			consumed[key] = true
			break
		}
	}

	if raw := stringValue(record["status"]); raw != "" {
		consumed["status"] = true
		if status, ok := domain.ParseStatus(raw); ok {
			item.Status = status
		}
	}
	if raw := stringValue(record["prioridade"]); raw != "" {
		consumed["prioridade"] = true
		item.Priority = domain.Priority(raw)
	}

	for key, value := range record {
		if consumed[key] {
			continue
		}
		if text := stringValue(value); text != "" {
			item.Details[key] = text
		}
	}
	return item, true
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

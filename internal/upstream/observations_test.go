package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestObservationListSortsAscendingAndKeepsUnparseable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sars/SAR-001/observacoes" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"observacoes": []map[string]any{
				{"usuario": "pedro", "observacao": "mais recente", "timestamp": "2026-03-15T15:00:00Z"},
				{"usuario": "ana", "observacao": "sem data válida", "data": "amanhã"},
				{"usuario": "maria", "observacao": "mais antiga", "data": "15/03/2026 10:00"},
			},
		})
	}))
	defer server.Close()

	entries, err := NewObservationClient(testClient()).List(context.Background(), sarDescriptor(server.URL), "SAR-001")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}

	// Unparseable timestamps sort first with the placeholder label.
	if entries[0].Text != "sem data válida" || entries[0].Label != "Data não informada" {
		t.Fatalf("first = %+v", entries[0])
	}
	if entries[1].Text != "mais antiga" || entries[2].Text != "mais recente" {
		t.Fatalf("order = %q, %q", entries[1].Text, entries[2].Text)
	}
}

func TestObservationAppendPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/chamados/17/observacao" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewObservationClient(testClient()).Append(context.Background(), chamadoDescriptor(server.URL), "17", "maria", "tudo certo")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if received["observacao"] != "tudo certo" || received["usuario"] != "maria" {
		t.Fatalf("payload = %+v", received)
	}
}

func TestObservationListEmptyLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"observacoes": []any{}})
	}))
	defer server.Close()

	entries, err := NewObservationClient(testClient()).List(context.Background(), chamadoDescriptor(server.URL), "17")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d", len(entries))
	}
}

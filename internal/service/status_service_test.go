package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/store"
)

func newStatusFixture(items *fakeItemClient, observations *fakeObservationClient, entityStore *store.EntityStore) (*StatusService, *memOverrideStore, *memObservationCache) {
	overrides := newMemOverrideStore()
	obsCache := newMemObservationCache()
	svc := NewStatusService(StatusDependencies{
		Registry:     testRegistry(),
		Items:        items,
		Observations: observations,
		Store:        entityStore,
		Overrides:    overrides,
		ObsCache:     obsCache,
		Dispatcher:   &capturingDispatcher{},
		Logger:       zap.NewNop(),
	})
	return svc, overrides, obsCache
}

func TestNonTerminalTransitionAppliesImmediately(t *testing.T) {
	items := &fakeItemClient{}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusPending, Owner: "maria"})
	svc, overrides, _ := newStatusFixture(items, &fakeObservationClient{}, entityStore)

	outcome, err := svc.RequestTransition(context.Background(), domain.KindChamados, "7", "maria", domain.StatusInProgress)
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if !outcome.Applied || outcome.RequiresConfirmation {
		t.Fatalf("outcome = %+v, want applied without confirmation", outcome)
	}
	if items.updatedStatus != domain.StatusInProgress {
		t.Fatalf("upstream status = %q", items.updatedStatus)
	}
	if value, ok := overrides.get(domain.KindChamados, cache.MapStatus, "7"); !ok || value != string(domain.StatusInProgress) {
		t.Fatalf("status override = %q, %v", value, ok)
	}
}

func TestTerminalTransitionRequiresConfirmation(t *testing.T) {
	items := &fakeItemClient{}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusInProgress, Owner: "maria"})
	svc, _, _ := newStatusFixture(items, &fakeObservationClient{}, entityStore)

	outcome, err := svc.RequestTransition(context.Background(), domain.KindSars, "7", "maria", domain.StatusCompleted)
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if outcome.Applied {
		t.Fatal("terminal transition applied without confirmation")
	}
	if !outcome.RequiresConfirmation || !outcome.RequiresClosingNote {
		t.Fatalf("outcome = %+v, want confirmation plus closing note", outcome)
	}
	if items.finalizeCalls != 0 {
		t.Fatal("finalize reached upstream before confirmation")
	}
	if pending, ok := svc.PendingTransition(domain.KindSars, "7"); !ok || pending != domain.StatusCompleted {
		t.Fatalf("pending = %q, %v", pending, ok)
	}
}

func TestCompletionWithoutNoteRejectedWhenRequired(t *testing.T) {
	items := &fakeItemClient{}
	observations := &fakeObservationClient{}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusInProgress, Owner: "maria"})
	svc, _, _ := newStatusFixture(items, observations, entityStore)

	_, err := svc.ConfirmTransition(context.Background(), domain.KindSars, "7", "maria", domain.StatusCompleted, "   ")
	if err == nil {
		t.Fatal("whitespace note accepted")
	}
	if observations.appendCalls != 0 || items.finalizeCalls != 0 {
		t.Fatal("remote calls made despite invalid note")
	}
	if item, _ := entityStore.Get(domain.KindSars, "7"); item.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want unchanged", item.Status)
	}
}

func TestCompletionAppendsNoteBeforeFinalize(t *testing.T) {
	items := &fakeItemClient{}
	observations := &fakeObservationClient{}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusInProgress, Owner: "maria"})
	svc, _, obsCache := newStatusFixture(items, observations, entityStore)
	_ = obsCache.Put(context.Background(), domain.KindSars, "7", []domain.Observation{domain.NewObservation("maria", "old")})

	outcome, err := svc.ConfirmTransition(context.Background(), domain.KindSars, "7", "maria", domain.StatusCompleted, "  trabalho concluído  ")
	if err != nil {
		t.Fatalf("ConfirmTransition: %v", err)
	}
	if !outcome.Applied {
		t.Fatalf("outcome = %+v", outcome)
	}
	if observations.appended != "trabalho concluído" {
		t.Fatalf("appended note = %q, want trimmed text", observations.appended)
	}
	if items.finalizeCalls != 1 {
		t.Fatalf("finalize calls = %d", items.finalizeCalls)
	}
	if item, _ := entityStore.Get(domain.KindSars, "7"); item.Status != domain.StatusCompleted {
		t.Fatalf("status = %q", item.Status)
	}
	// The cached log is stale once the closing note lands upstream.
	if _, found, _ := obsCache.Get(context.Background(), domain.KindSars, "7"); found {
		t.Fatal("observation cache not invalidated")
	}
}

func TestNoteFailureSkipsFinalize(t *testing.T) {
	items := &fakeItemClient{}
	observations := &fakeObservationClient{appendErr: context.DeadlineExceeded}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusInProgress, Owner: "maria"})
	svc, _, _ := newStatusFixture(items, observations, entityStore)

	if _, err := svc.ConfirmTransition(context.Background(), domain.KindSars, "7", "maria", domain.StatusCompleted, "nota"); err == nil {
		t.Fatal("expected error")
	}
	if items.finalizeCalls != 0 {
		t.Fatal("finalize ran after failed note append")
	}
	if item, _ := entityStore.Get(domain.KindSars, "7"); item.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want unchanged", item.Status)
	}
}

func TestCancellationNeedsNoNote(t *testing.T) {
	items := &fakeItemClient{}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusPending, Owner: "maria"})
	svc, _, _ := newStatusFixture(items, &fakeObservationClient{}, entityStore)

	outcome, err := svc.ConfirmTransition(context.Background(), domain.KindSars, "7", "maria", domain.StatusCancelled, "")
	if err != nil {
		t.Fatalf("ConfirmTransition: %v", err)
	}
	if !outcome.Applied || items.cancelCalls != 1 {
		t.Fatalf("outcome = %+v, cancel calls = %d", outcome, items.cancelCalls)
	}
}

func TestTransitionRules(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.Status
		to      domain.Status
		allowed bool
	}{
		{"pending to in progress", domain.StatusPending, domain.StatusInProgress, true},
		{"in progress back to pending", domain.StatusInProgress, domain.StatusPending, true},
		{"completed is terminal", domain.StatusCompleted, domain.StatusPending, false},
		{"cancelled is terminal", domain.StatusCancelled, domain.StatusInProgress, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items := &fakeItemClient{}
			entityStore := seedStore(domain.WorkItem{ID: "7", Status: tc.from, Owner: "maria"})
			svc, _, _ := newStatusFixture(items, &fakeObservationClient{}, entityStore)

			_, err := svc.RequestTransition(context.Background(), domain.KindChamados, "7", "maria", tc.to)
			if tc.allowed && err != nil {
				t.Fatalf("RequestTransition: %v", err)
			}
			if !tc.allowed && err == nil {
				t.Fatal("forbidden transition accepted")
			}
		})
	}
}

func TestTransitionRequiresOwnership(t *testing.T) {
	items := &fakeItemClient{}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusPending, Owner: "joao"})
	svc, _, _ := newStatusFixture(items, &fakeObservationClient{}, entityStore)

	if _, err := svc.RequestTransition(context.Background(), domain.KindChamados, "7", "maria", domain.StatusInProgress); err == nil {
		t.Fatal("non-owner transition accepted")
	}
	if items.updateCalls != 0 {
		t.Fatal("update reached upstream for non-owner")
	}
}

func TestAbandonClearsPendingSelection(t *testing.T) {
	items := &fakeItemClient{}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusInProgress, Owner: "maria"})
	svc, _, _ := newStatusFixture(items, &fakeObservationClient{}, entityStore)

	if _, err := svc.RequestTransition(context.Background(), domain.KindSars, "7", "maria", domain.StatusCancelled); err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	item, err := svc.AbandonTransition(domain.KindSars, "7")
	if err != nil {
		t.Fatalf("AbandonTransition: %v", err)
	}
	if item.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want stored status", item.Status)
	}
	if _, ok := svc.PendingTransition(domain.KindSars, "7"); ok {
		t.Fatal("pending selection survived abandon")
	}
}

func TestUpstreamFailureLeavesStatusUntouched(t *testing.T) {
	items := &fakeItemClient{updateErr: context.DeadlineExceeded}
	entityStore := seedStore(domain.WorkItem{ID: "7", Status: domain.StatusPending, Owner: "maria"})
	svc, overrides, _ := newStatusFixture(items, &fakeObservationClient{}, entityStore)

	if _, err := svc.RequestTransition(context.Background(), domain.KindChamados, "7", "maria", domain.StatusInProgress); err == nil {
		t.Fatal("expected error")
	}
	if item, _ := entityStore.Get(domain.KindChamados, "7"); item.Status != domain.StatusPending {
		t.Fatalf("status = %q, want unchanged", item.Status)
	}
	if _, ok := overrides.get(domain.KindChamados, cache.MapStatus, "7"); ok {
		t.Fatal("override written despite failure")
	}
}

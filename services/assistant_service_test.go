package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mbrth/iasante/models"
)

// blockingBackend holds each call until released, counting dispatches.
type blockingBackend struct {
	calls   atomic.Int32
	release chan struct{}
	reply   string
	err     error
}

func (b *blockingBackend) SendChat(_ context.Context, _ string, _ []ChatTurn, _ string) (string, error) {
	b.calls.Add(1)
	if b.release != nil {
		<-b.release
	}
	return b.reply, b.err
}

func testProfile() *models.Profile {
	return &models.Profile{
		Age:         52,
		Sex:         "Male",
		Pathologies: []string{models.PathologyDiabetesT2, models.PathologyHypertension},
	}
}

func TestGreetingNamesPathologies(t *testing.T) {
	g := Greeting(testProfile())
	if !strings.HasPrefix(g, "Bonjour.") {
		t.Fatalf("greeting must open in French, got %q", g)
	}
	if !strings.Contains(g, "Diabetes Type 2, Hypertension") {
		t.Fatalf("greeting must name the pathologies, got %q", g)
	}
}

func TestSendRecordsHistory(t *testing.T) {
	backend := &blockingBackend{reply: "Réponse du modèle."}
	session := NewChatSession(backend, testProfile(), 1)

	reply, err := session.Send(context.Background(), "Que manger ce soir ?")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if reply != "Réponse du modèle." {
		t.Fatalf("reply = %q", reply)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.history) != 2 {
		t.Fatalf("history has %d turns, want 2", len(session.history))
	}
	if session.history[0].Role != "user" || session.history[1].Role != "model" {
		t.Fatalf("history roles = %q, %q", session.history[0].Role, session.history[1].Role)
	}
}

func TestSendWhileBusyIsRejectedWithoutDispatch(t *testing.T) {
	backend := &blockingBackend{reply: "ok", release: make(chan struct{})}
	session := NewChatSession(backend, testProfile(), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := session.Send(context.Background(), "premier message"); err != nil {
			t.Errorf("first send failed: %v", err)
		}
	}()

	// wait until the first send is inside the backend
	for i := 0; backend.calls.Load() == 0; i++ {
		if i > 1000 {
			t.Fatal("first send never reached the backend")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := session.Send(context.Background(), "deuxième message"); !errors.Is(err, ErrChatBusy) {
		t.Fatalf("concurrent send error = %v, want ErrChatBusy", err)
	}

	close(backend.release)
	<-done

	if n := backend.calls.Load(); n != 1 {
		t.Fatalf("backend dispatched %d times, want 1", n)
	}

	// the slot is free again once the first send resolved
	backend.release = nil
	if _, err := session.Send(context.Background(), "troisième message"); err != nil {
		t.Fatalf("send after resolution failed: %v", err)
	}
}

func TestSendFailureReturnsSafetyFallback(t *testing.T) {
	backend := &blockingBackend{err: errors.New("provider down")}
	session := NewChatSession(backend, testProfile(), 1)

	reply, err := session.Send(context.Background(), "Que manger ce soir ?")
	if err != nil {
		t.Fatalf("provider failure must not surface as an error, got %v", err)
	}
	if reply != SafetyFallbackMessage {
		t.Fatalf("reply = %q, want the safety fallback", reply)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.history) != 0 {
		t.Fatalf("failed exchange must not be recorded, history has %d turns", len(session.history))
	}
}

func TestSessionKeepsSeedGeneration(t *testing.T) {
	session := NewChatSession(&blockingBackend{reply: "ok"}, testProfile(), 7)
	if g := session.Generation(); g != 7 {
		t.Fatalf("generation = %d, want 7", g)
	}
}

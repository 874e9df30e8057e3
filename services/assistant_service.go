package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mbrth/iasante/models"
)

// ChatBackend sends one assistant turn with prior history as context.
type ChatBackend interface {
	SendChat(ctx context.Context, system string, history []ChatTurn, message string) (string, error)
}

// ErrChatBusy means a prior send is still outstanding. The caller treats the
// attempt as a no-op: nothing was dispatched.
var ErrChatBusy = errors.New("chat request already in flight")

// SafetyFallbackMessage replaces the reply when the provider fails. The raw
// error is never surfaced to the patient.
const SafetyFallbackMessage = "**Alerte Système** : Le moteur médical est temporairement indisponible. Veuillez vous référer à votre protocole papier ou contacter votre médecin si nécessaire."

// ChatSession is one assistant conversation: seeded with the profile as
// system context, held for the lifetime of the assistant view, messages sent
// strictly one at a time. A single-slot busy flag guards sends — there is no
// queue, a second send while one is outstanding is rejected.
type ChatSession struct {
	backend    ChatBackend
	system     string
	generation uint64

	mu      sync.Mutex
	busy    bool
	history []ChatTurn
}

// NewChatSession opens a session for the given profile. generation is the
// profile generation the session was seeded under; when the profile changes
// the session is stale and must be reseeded.
func NewChatSession(backend ChatBackend, profile *models.Profile, generation uint64) *ChatSession {
	return &ChatSession{
		backend:    backend,
		system:     AssistantSystemInstruction(profile),
		generation: generation,
	}
}

// Generation returns the profile generation this session was seeded under.
func (s *ChatSession) Generation() uint64 { return s.generation }

// Greeting is the seeded opening message of a session.
func Greeting(profile *models.Profile) string {
	return fmt.Sprintf("Bonjour. J'ai analysé votre profil de **%s**. \n\nVoici comment je peux vous aider aujourd'hui :\n- Optimiser votre glycémie pour le prochain repas\n- Analyser un aliment spécifique\n- Ajuster votre protocole hebdomadaire\n\nQue souhaitez-vous explorer ?",
		strings.Join(profile.Pathologies, ", "))
}

// Send dispatches one user message. Returns ErrChatBusy without dispatching
// when a prior send has not resolved. On provider failure the canned safety
// message is returned instead of the error, and the failed exchange is not
// recorded in the session history.
func (s *ChatSession) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return "", ErrChatBusy
	}
	s.busy = true
	history := make([]ChatTurn, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	reply, err := s.backend.SendChat(ctx, s.system, history, message)

	s.mu.Lock()
	s.busy = false
	if err == nil {
		s.history = append(s.history,
			ChatTurn{Role: "user", Text: message},
			ChatTurn{Role: "model", Text: reply},
		)
	}
	s.mu.Unlock()

	if err != nil {
		return SafetyFallbackMessage, nil
	}
	return reply, nil
}

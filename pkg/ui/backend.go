package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/persona-chat/pkg/transcript"
)

// ChatService is the exchange surface the terminal front-ends drive.
type ChatService interface {
	Submit(ctx context.Context, input string, history transcript.Transcript) (string, transcript.Transcript, error)
	Reset() (string, transcript.Transcript)
}

// ExchangeFinishedMsg carries the widget state produced by one Submit.
type ExchangeFinishedMsg struct {
	Input      string
	Transcript transcript.Transcript
	Err        error
}

// Backend runs exchanges off the bubbletea update loop, one at a time.
type Backend struct {
	svc ChatService

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewBackend(svc ChatService) *Backend {
	return &Backend{svc: svc}
}

// Start returns a command performing the exchange. It refuses to start while another one is
// in flight.
func (b *Backend) Start(ctx context.Context, input string, history transcript.Transcript) (tea.Cmd, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil, errors.New("an exchange is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.running = true

	return func() tea.Msg {
		in, out, err := b.svc.Submit(ctx, input, history)

		b.mu.Lock()
		b.running = false
		b.cancel = nil
		b.mu.Unlock()
		cancel()

		if err != nil {
			log.Error().Err(err).Str("component", "ui").Msg("exchange failed")
		}
		return ExchangeFinishedMsg{Input: in, Transcript: out, Err: err}
	}, nil
}

// Interrupt cancels the running exchange, if any.
func (b *Backend) Interrupt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		return
	}
	log.Debug().Str("component", "ui").Msg("no exchange running")
}

func (b *Backend) IsFinished() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.running
}

func (b *Backend) Reset() (string, transcript.Transcript) {
	return b.svc.Reset()
}

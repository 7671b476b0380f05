package whatsapp

import (
	"context"
	"sync"
)

// SentMessage records one outbound send for inspection in tests.
type SentMessage struct {
	To       string
	Text     string
	ImageURL string
	Caption  string
}

// MockProvider records sends instead of delivering them. Used by tests and
// local runs without Cloud API credentials.
type MockProvider struct {
	mu   sync.Mutex
	sent []SentMessage

	// FailWith, when set, makes every send return this error.
	FailWith error
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) SendText(_ context.Context, to, text string) error {
	if p.FailWith != nil {
		return p.FailWith
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, SentMessage{To: to, Text: text})
	return nil
}

func (p *MockProvider) SendImage(_ context.Context, to, imageURL, caption string) error {
	if p.FailWith != nil {
		return p.FailWith
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, SentMessage{To: to, ImageURL: imageURL, Caption: caption})
	return nil
}

func (p *MockProvider) GetProviderName() string {
	return "mock"
}

// Sent returns a copy of everything sent so far.
func (p *MockProvider) Sent() []SentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SentMessage, len(p.sent))
	copy(out, p.sent)
	return out
}

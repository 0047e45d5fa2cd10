package params

import (
	"context"
	"sync"
)

type reply struct {
	text   string
	cancel bool
}

func (r reply) result() (string, error) {
	if r.cancel {
		return "", ErrCancelled
	}
	return r.text, nil
}

type pendingPrompt struct {
	prompt Prompt
	reply  chan reply
}

// ChannelPrompter parks a prompt until another goroutine (typically an HTTP
// handler) submits or cancels it. At most one prompt is open at a time.
type ChannelPrompter struct {
	mu      sync.Mutex
	pending *pendingPrompt
}

func NewChannelPrompter() *ChannelPrompter {
	return &ChannelPrompter{}
}

func (p *ChannelPrompter) Ask(ctx context.Context, prompt Prompt) (string, error) {
	pp := &pendingPrompt{prompt: prompt, reply: make(chan reply, 1)}

	p.mu.Lock()
	if p.pending != nil {
		p.mu.Unlock()
		return "", ErrPromptBusy
	}
	p.pending = pp
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.pending == pp {
			p.pending = nil
		}
		p.mu.Unlock()
	}()

	select {
	case r := <-pp.reply:
		return r.result()
	case <-ctx.Done():
		// A reply delivered before the context ended still wins.
		select {
		case r := <-pp.reply:
			return r.result()
		default:
			return "", ctx.Err()
		}
	}
}

// Pending returns the open prompt, if any.
func (p *ChannelPrompter) Pending() (Prompt, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return Prompt{}, false
	}
	return p.pending.prompt, true
}

func (p *ChannelPrompter) Submit(text string) error {
	return p.resolve(reply{text: text})
}

func (p *ChannelPrompter) Cancel() error {
	return p.resolve(reply{cancel: true})
}

func (p *ChannelPrompter) resolve(r reply) error {
	p.mu.Lock()
	pp := p.pending
	p.pending = nil
	p.mu.Unlock()

	if pp == nil {
		return ErrNoPrompt
	}
	pp.reply <- r
	return nil
}

// Package echo is an offline backend. It never leaves the process, which makes it useful for
// demos without a credential and for exercising the front-ends in tests.
package echo

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

const Provider = "echo"

// Invoker replies with the scripted responses in order, then falls back to echoing the input.
type Invoker struct {
	mu     sync.Mutex
	script []string
	prefix string
	calls  int
}

type Option func(*Invoker)

// WithScript queues canned replies that are returned before echoing starts.
func WithScript(replies ...string) Option {
	return func(i *Invoker) {
		i.script = append(i.script, replies...)
	}
}

// WithPrefix sets the text placed before the echoed input.
func WithPrefix(prefix string) Option {
	return func(i *Invoker) {
		i.prefix = prefix
	}
}

func New(opts ...Option) *Invoker {
	i := &Invoker{prefix: "You said: "}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Invoker) Invoke(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", llm.NewUpstreamError(Provider, "", errors.Wrap(err, "request cancelled"))
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++

	if len(i.script) > 0 {
		reply := i.script[0]
		i.script = i.script[1:]
		return reply, nil
	}
	if req.NewInput == "" {
		return fmt.Sprintf("%s(nothing) [%d earlier messages]", i.prefix, len(req.History)), nil
	}
	return i.prefix + req.NewInput, nil
}

// Calls returns how many times Invoke has been called.
func (i *Invoker) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

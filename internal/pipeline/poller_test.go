package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lmedina/mailboard/internal/mailbox"
)

// countingMailbox counts search calls so tests can observe cycles.
type countingMailbox struct {
	mu       sync.Mutex
	searches int
}

func (c *countingMailbox) SearchUnseenFrom(context.Context, string) ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches++
	return nil, nil
}

func (c *countingMailbox) FetchMessage(context.Context, uint32) (*mailbox.Message, error) {
	return nil, nil
}

func (c *countingMailbox) MarkSeen(context.Context, uint32) error {
	return nil
}

func (c *countingMailbox) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searches
}

func TestPollerRunsImmediatelyAndOnInterval(t *testing.T) {
	mb := &countingMailbox{}
	pipe := newPipeline(mb, &fakeSubmitter{}, nil, "azuredevops@microsoft.com")
	poller := NewPoller(pipe, 20*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	// The initial cycle plus at least one ticker cycle.
	assert.Eventually(t, func() bool {
		return mb.count() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.False(t, poller.LastCycle().IsZero())
}

func TestPollerStop(t *testing.T) {
	mb := &countingMailbox{}
	pipe := newPipeline(mb, &fakeSubmitter{}, nil, "azuredevops@microsoft.com")
	poller := NewPoller(pipe, time.Hour, zap.NewNop())

	done := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(done)
	}()

	// Let the initial cycle complete, then stop.
	assert.Eventually(t, func() bool {
		return mb.count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	poller.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

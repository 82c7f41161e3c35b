package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ryanbastic/rollcall/internal/metrics"
)

// Notifier fans domain events out to subscribers. Delivery is asynchronous;
// failures are logged and counted, never returned to the publisher.
type Notifier struct {
	registry *Registry
	client   *RPCClient
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewNotifier(registry *Registry, client *RPCClient, logger *slog.Logger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		registry: registry,
		client:   client,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Publish starts one delivery goroutine per subscriber of e.Name.
func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	for _, s := range n.registry.For(e.Name) {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			if err := n.client.Notify(n.ctx, s.Endpoint, e.Name, e.Params); err != nil {
				metrics.RecordNotifyDelivery(e.Name, "failed")
				n.logger.Error("notification failed", "subscriber", s.Name, "endpoint", s.Endpoint, "event", e.Name, "error", err)
				return
			}
			metrics.RecordNotifyDelivery(e.Name, "delivered")
			n.logger.Debug("notification delivered", "subscriber", s.Name, "event", e.Name)
		}()
	}
}

// Close stops accepting events and waits for in-flight deliveries until ctx
// expires, at which point outstanding deliveries are cancelled.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	defer n.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

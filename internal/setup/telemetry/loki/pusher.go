package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/mythril-io/mythril/internal/setup/config"
)

// ErrUnexpectedStatusCode is returned when Loki responds with an unexpected status code.
var ErrUnexpectedStatusCode = errors.New("unexpected status code from Loki")

// Pusher batches log entries and sends them to Loki.
type Pusher struct {
	config    config.Loki
	cancel    context.CancelFunc
	client    *http.Client
	quit      chan struct{}
	entry     chan logEntry
	waitGroup sync.WaitGroup
	stopOnce  sync.Once
	logsBatch []streamValue
	pushURL   string
}

// NewPusher creates a pusher and starts its send loop.
func NewPusher(ctx context.Context, config config.Loki) *Pusher {
	ctx, cancel := context.WithCancel(ctx)

	pusher := &Pusher{
		config:    config,
		cancel:    cancel,
		client:    &http.Client{Timeout: 10 * time.Second},
		quit:      make(chan struct{}),
		entry:     make(chan logEntry, config.BatchMaxSize*2),
		logsBatch: make([]streamValue, 0, config.BatchMaxSize),
		pushURL:   config.URL + "/loki/api/v1/push",
	}

	pusher.waitGroup.Add(1)
	go pusher.run(ctx)

	return pusher
}

// AddEntry queues an entry. Entries are dropped when the queue is full
// so logging never blocks on Loki.
func (p *Pusher) AddEntry(entry logEntry) {
	select {
	case p.entry <- entry:
	default:
		slog.Warn("Loki entry channel full, dropping log entry")
	}
}

// Stop sends every queued entry and shuts the pusher down.
func (p *Pusher) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.waitGroup.Wait()
		p.cancel()
	})
}

func (p *Pusher) run(ctx context.Context) {
	defer p.waitGroup.Done()

	ticker := time.NewTicker(time.Duration(p.config.BatchMaxWaitMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			p.drain(ctx)
			return
		case entry := <-p.entry:
			p.append(entry)
			if len(p.logsBatch) >= p.config.BatchMaxSize {
				p.flush(ctx)
			}
		case <-ticker.C:
			p.flush(ctx)
		}
	}
}

// drain moves the queued entries into batches and sends them.
func (p *Pusher) drain(ctx context.Context) {
	for {
		select {
		case entry := <-p.entry:
			p.append(entry)
			if len(p.logsBatch) >= p.config.BatchMaxSize {
				p.flush(ctx)
			}
		default:
			p.flush(ctx)
			return
		}
	}
}

func (p *Pusher) append(entry logEntry) {
	p.logsBatch = append(p.logsBatch, streamValue{strconv.FormatInt(entry.timestamp, 10), entry.line})
}

// flush sends the current batch and resets it, even when sending fails.
func (p *Pusher) flush(ctx context.Context) {
	if len(p.logsBatch) == 0 {
		return
	}
	if err := p.send(ctx); err != nil {
		slog.Error("failed to send Loki batch", slog.Any("error", err))
	}
	p.logsBatch = p.logsBatch[:0]
}

// send transmits the current batch to Loki as one gzip-compressed stream.
func (p *Pusher) send(ctx context.Context) error {
	request := pushRequest{
		Streams: []stream{{
			Stream: p.config.Labels,
			Values: p.logsBatch,
		}},
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := sonic.ConfigDefault.NewEncoder(gz).Encode(request); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to compress: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.pushURL, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	if p.config.Username != "" && p.config.Password != "" {
		req.SetBasicAuth(p.config.Username, p.config.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}
	return nil
}

// Package daemon serves a compiled corpus over a unix socket using JSON-RPC
// 2.0 and manages the pid and lock files of the running service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/morrowland-code/morrowland77777/internal/corpus"
	"github.com/morrowland-code/morrowland77777/internal/logger"
	"github.com/morrowland-code/morrowland77777/internal/metrics"
	"github.com/morrowland-code/morrowland77777/internal/trait"
	"github.com/morrowland-code/morrowland77777/pkg/protocol"
)

// Daemon answers lookups against one immutable corpus. Requests on every
// connection run concurrently; the corpus needs no locking because nothing
// mutates it after compilation.
type Daemon struct {
	socketPath string
	listener   *SocketListener
	corpus     *corpus.Corpus
	metrics    *metrics.Metrics
	log        *slog.Logger

	conns  map[*jsonrpc2.Conn]struct{}
	connMu sync.Mutex
	wg     sync.WaitGroup

	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

// NewDaemon wraps c. m may be nil, in which case lookups are not counted.
func NewDaemon(socketPath string, c *corpus.Corpus, m *metrics.Metrics) *Daemon {
	return &Daemon{
		socketPath: socketPath,
		listener:   NewSocketListener(socketPath),
		corpus:     c,
		metrics:    m,
		log:        logger.ForComponent("daemon"),
		conns:      make(map[*jsonrpc2.Conn]struct{}),
		shutdown:   make(chan struct{}),
		startTime:  time.Now(),
	}
}

// Start binds the socket and accepts connections in the background.
func (d *Daemon) Start() error {
	if err := d.listener.Start(); err != nil {
		return err
	}

	d.wg.Add(1)
	go d.acceptConnections()

	d.log.Info("daemon listening", "socket", d.socketPath, "build", d.corpus.BuildID(), "entries", d.corpus.Len())
	return nil
}

// Serve starts the daemon and blocks until ctx is cancelled or Shutdown is
// called from elsewhere.
func (d *Daemon) Serve(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-d.shutdown:
	}
	d.Shutdown()
	return nil
}

func (d *Daemon) acceptConnections() {
	defer d.wg.Done()

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			d.log.Warn("accept failed", "error", err)
			continue
		}
		d.serveConn(conn)
	}
}

func (d *Daemon) serveConn(conn net.Conn) {
	stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.PlainObjectCodec{})
	rpc := jsonrpc2.NewConn(context.Background(), stream, &asyncHandler{
		wg:    &d.wg,
		inner: jsonrpc2.HandlerWithError(d.handle),
	})

	// Registration and the shutdown check share connMu so a connection
	// accepted while Shutdown runs is either closed there or here.
	d.connMu.Lock()
	select {
	case <-d.shutdown:
		d.connMu.Unlock()
		rpc.Close()
		return
	default:
	}
	d.conns[rpc] = struct{}{}
	d.connMu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		<-rpc.DisconnectNotify()

		d.connMu.Lock()
		delete(d.conns, rpc)
		d.connMu.Unlock()
	}()
}

// asyncHandler runs each request on its own goroutine and tracks it so
// Shutdown can wait for in-flight replies.
type asyncHandler struct {
	wg    *sync.WaitGroup
	inner jsonrpc2.Handler
}

func (h *asyncHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.inner.Handle(ctx, conn, req)
	}()
}

func (d *Daemon) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case protocol.MethodPing:
		return protocol.HealthResponse{Status: "ok", Uptime: int64(d.Uptime().Seconds())}, nil

	case protocol.MethodLookup:
		var params protocol.LookupParams
		if req.Params != nil {
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
			}
		}
		return d.lookup(params.Code), nil

	case protocol.MethodAudit:
		report := d.corpus.AuditReport()
		return protocol.AuditResult{
			MissingCodes: report.Missing,
			ExtraCodes:   report.Extra,
			MissingCount: report.MissingCount(),
			ExtraCount:   report.ExtraCount(),
		}, nil

	case protocol.MethodStats:
		return d.stats(), nil
	}

	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + req.Method}
}

func (d *Daemon) lookup(code string) protocol.LookupResult {
	if code == "" {
		code = trait.DefaultCode
	}
	entry := d.corpus.Lookup(code)
	if d.metrics != nil {
		d.metrics.ObserveLookup(entry.Resolution)
	}
	d.log.Debug("lookup", "code", entry.Code, "resolution", entry.Resolution)

	return protocol.LookupResult{
		Code:         entry.Code,
		Name:         entry.Name,
		DetailedText: entry.DetailedText,
		Resolution:   string(entry.Resolution),
	}
}

func (d *Daemon) stats() protocol.StatsResult {
	s := d.corpus.Stats()
	result := protocol.StatsResult{
		BuildID:     d.corpus.BuildID(),
		CompiledAt:  d.corpus.CompiledAt().Format(time.RFC3339),
		Entries:     d.corpus.Len(),
		Records:     s.Records,
		TextEntries: s.TextEntries,
		Suspicious:  s.Suspicious,
		Overrides:   s.OverrideSources,
		Uptime:      int64(d.Uptime().Seconds()),
	}
	if d.metrics != nil {
		counts, err := d.metrics.LookupCounts()
		if err != nil {
			d.log.Warn("lookup counters unavailable", "error", err)
		}
		result.Lookups = counts
	}
	return result
}

// Shutdown closes the listener and every connection, then waits for
// in-flight requests. It is safe to call more than once.
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)

		d.listener.Close()

		d.connMu.Lock()
		conns := make([]*jsonrpc2.Conn, 0, len(d.conns))
		for c := range d.conns {
			conns = append(conns, c)
		}
		d.connMu.Unlock()

		for _, c := range conns {
			c.Close()
		}

		d.wg.Wait()
		os.Remove(d.socketPath)
		d.log.Info("daemon stopped", "socket", d.socketPath)
	})
}

func (d *Daemon) Done() <-chan struct{} {
	return d.shutdown
}

func (d *Daemon) SocketPath() string {
	return d.socketPath
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}

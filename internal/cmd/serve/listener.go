package serve

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/soheilhy/cmux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const defaultReadHeaderTimeout = 5 * time.Second

// RunningListener is one bound port serving plaintext and/or TLS HTTP.
type RunningListener struct {
	Name  string
	Addr  net.Addr
	Port  int
	Close func(ctx context.Context) error
}

// httpListener multiplexes plaintext (h2c) and TLS traffic on a single port.
type httpListener struct {
	name    string
	base    net.Listener
	mux     cmux.CMux
	servers []*http.Server
	once    sync.Once
}

// startListener binds cfg.Port and serves handler on it.
func startListener(name string, cfg config.ListenerConfig, handler http.Handler) (*RunningListener, error) {
	if !cfg.EnablePlainText && !cfg.EnableTLS {
		return nil, fmt.Errorf("%s listener requires plaintext and/or tls enabled", name)
	}
	timeout := cfg.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = defaultReadHeaderTimeout
	}

	base, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("%s listen failed: %w", name, err)
	}
	l := &httpListener{name: name, base: base, mux: cmux.New(base)}

	// TLS must be matched before the catch-all plaintext matcher.
	if cfg.EnableTLS {
		cert, err := loadServerCertificate(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			_ = base.Close()
			return nil, err
		}
		tlsLis := tls.NewListener(l.mux.Match(cmux.TLS()), &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{"h2", "http/1.1"},
			MinVersion:   tls.VersionTLS12,
		})
		l.serve("tls", tlsLis, handler, timeout)
	}
	if cfg.EnablePlainText {
		l.serve("plaintext", l.mux.Match(cmux.Any()), h2c.NewHandler(handler, &http2.Server{}), timeout)
	}

	go func() {
		if err := l.mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error("listener mux failed", "listener", name, "err", err)
		}
	}()

	running := &RunningListener{Name: name, Addr: base.Addr(), Close: l.close}
	if tcp, ok := base.Addr().(*net.TCPAddr); ok {
		running.Port = tcp.Port
	}
	return running, nil
}

func (l *httpListener) serve(kind string, lis net.Listener, handler http.Handler, timeout time.Duration) {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: timeout}
	l.servers = append(l.servers, srv)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			log.Error("http server failed", "listener", l.name, "kind", kind, "err", err)
		}
	}()
}

// close drains every server then releases the port. Later calls are no-ops.
func (l *httpListener) close(ctx context.Context) error {
	var first error
	l.once.Do(func() {
		for _, srv := range l.servers {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) && first == nil {
				first = err
			}
		}
		_ = l.base.Close()
	})
	return first
}

package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pumped-fn/itemshop"
	"github.com/pumped-fn/itemshop/extensions"
	"github.com/pumped-fn/itemshop/internal/blob"
	"github.com/pumped-fn/itemshop/internal/config"
	"github.com/pumped-fn/itemshop/internal/images"
	"github.com/pumped-fn/itemshop/internal/store"
)

// app holds everything a command needs, opened once per invocation.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	handler slog.Handler

	db     *sql.DB
	store  *store.Store
	blobs  blob.Store
	images *images.Attacher

	registry *prometheus.Registry
	metrics  *extensions.MetricsExtension
	server   *http.Server
}

// backend joins the SQL store with the image attacher.
type backend struct {
	*store.Store
	*images.Attacher
}

var _ itemshop.Backend = backend{}

func newLogHandler(cfg config.Log, w io.Writer) (slog.Handler, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "human":
		return extensions.NewHumanHandler(w, level), nil
	default:
		return slog.NewTextHandler(w, opts), nil
	}
}

func newApp(ctx context.Context, cfg config.Config, userID string, logOut io.Writer) (*app, error) {
	handler, err := newLogHandler(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, handler: handler, logger: slog.New(handler)}

	a.db, err = store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.store = store.New(a.db, userID)

	a.blobs, err = blob.Open(ctx, blob.Options{
		Driver: blob.Driver(cfg.Blob.Driver),
		FSRoot: cfg.Blob.Root,
		S3: blob.S3Options{
			Bucket:          cfg.Blob.S3.Bucket,
			Region:          cfg.Blob.S3.Region,
			Endpoint:        cfg.Blob.S3.Endpoint,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
			PathStyle:       cfg.Blob.S3.PathStyle,
		},
	})
	if err != nil {
		_ = a.db.Close()
		return nil, fmt.Errorf("opening blob store: %w", err)
	}
	a.images = images.NewAttacher(a.blobs, a.store, a.logger.With("component", "images"))

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics, err = extensions.NewMetricsExtension(a.registry, cfg.Metrics.Namespace)
	if err != nil {
		_ = a.db.Close()
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		if err := a.serveMetrics(cfg.Metrics.Addr); err != nil {
			_ = a.db.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (a *app) backend() itemshop.Backend {
	return backend{Store: a.store, Attacher: a.images}
}

// session opens a session for the configured account, with every extension wired.
func (a *app) session(host itemshop.Host) (*itemshop.Session, error) {
	return itemshop.NewSession(a.cfg.AccountID, a.backend(),
		itemshop.WithLogger(a.logger),
		itemshop.WithHost(host),
		itemshop.WithExtension(a.metrics),
		itemshop.WithExtension(extensions.NewLoggingExtension(a.logger.With("component", "graph"))),
		itemshop.WithExtension(extensions.NewGraphDebugExtension(a.handler)),
	)
}

func (a *app) close() error {
	var errs []error
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

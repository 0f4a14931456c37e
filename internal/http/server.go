package http

import (
	"context"
	"errors"
	"log/slog"
	nhttp "net/http"
	"time"

	"query-advisor/internal/config"
)

type Server struct {
	http *nhttp.Server
	log  *slog.Logger
}

func NewServer(cfg config.Config, h nhttp.Handler, log *slog.Logger) *Server {
	s := &Server{
		http: &nhttp.Server{
			Addr:              ":" + cfg.Port,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      writeTimeout(cfg.RequestTimeout),
			IdleTimeout:       120 * time.Second,
		},
		log: log,
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("http server shutting down")
		c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(c); err != nil {
			s.log.Error("http server shutdown error", "err", err)
			return err
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, nhttp.ErrServerClosed) {
			return nil
		}
		s.log.Error("http server error", "err", err)
		return err
	}
}

// writeTimeout leaves room for the handler timeout plus response encoding.
func writeTimeout(request time.Duration) time.Duration {
	if request <= 0 {
		return 60 * time.Second
	}
	return request + 10*time.Second
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.http.Addr }

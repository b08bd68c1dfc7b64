package main

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/icecave/courier/cmd"
	"github.com/icecave/courier/forward"
	"github.com/icecave/courier/frontend"
	"github.com/icecave/courier/metrics"
	"github.com/icecave/courier/proxyprotocol"
	"go.uber.org/multierr"
)

var version = "notset"

func main() {
	config := cmd.GetConfigFromEnvironment()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	m := metrics.New()

	handler := &frontend.Handler{
		Options: &forward.Options{
			Hostname:     config.UpstreamHost,
			Port:         config.UpstreamPort,
			Timeout:      config.Timeout,
			ProxyTimeout: config.ProxyTimeout,
			ProxyName:    config.ProxyName,
		},
		Logger:  logger,
		Metrics: m,
	}

	// Serving through h2c lets HTTP/2 clients reach the engine without the
	// host terminating TLS.
	server := &http.Server{
		Addr:     ":" + config.Port,
		Handler:  h2c.NewHandler(handler, &http2.Server{}),
		ErrorLog: logger,
	}

	metricsServer := &http.Server{
		Addr:     ":" + config.MetricsPort,
		Handler:  metricsMux(m),
		ErrorLog: logger,
	}

	go func() {
		err := metricsServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalln(err)
		}
	}()

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		<-signals

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := multierr.Append(
			server.Shutdown(ctx),
			metricsServer.Shutdown(ctx),
		)
		if err != nil {
			logger.Println(err)
		}
	}()

	listener, err := net.Listen("tcp", ":"+config.Port)
	if err != nil {
		logger.Fatalln(err)
	}

	if config.ProxyProtocol {
		listener = proxyprotocol.NewListener(listener)
	}

	logger.Printf(
		"courier %s listening on port %s, forwarding to %s:%d",
		version,
		config.Port,
		config.UpstreamHost,
		config.UpstreamPort,
	)

	err = server.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		logger.Fatalln(err)
	}
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "OK")
	})

	return mux
}

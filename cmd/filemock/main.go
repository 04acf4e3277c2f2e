// Command filemock runs the file-backed mock HTTP/HTTPS server,
// grounded on the teacher's root main.go/utils.go cobra-driven
// bootstrap (StartupMessage, fatalExit, listenApp, watchConfigFile)
// but generalized from a single config.json reload loop into the
// core's compile/watch/reload/dispatch/log pipeline.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"filemock/internal/appinfo"
	"filemock/internal/diag"
	"filemock/internal/reload"
	"filemock/internal/requestlog"
	"filemock/internal/server"
	"filemock/internal/tlsutil"
	"filemock/internal/ulid"
	"filemock/internal/watch"
	"filemock/pkg/config"
)

const shutdownGrace = 5 * time.Second

func main() {
	sink := diag.NewConsoleSink(false)

	opts := &config.Options{}

	rootCmd := &cobra.Command{
		Use:   appinfo.Name + " <DIRECTORY>",
		Short: appinfo.Title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Directory = args[0]
			opts.ApplyDefaults()
			if err := opts.Validate(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if err := run(opts, sink); err != nil {
				sink.Error(err.Error())
				os.Exit(1)
			}
			return nil
		},
	}

	rootCmd.Flags().IntVar(&opts.HTTPPort, "http-port", 8080, "HTTP listen port")
	rootCmd.Flags().IntVar(&opts.HTTPSPort, "https-port", 8443, "HTTPS listen port")
	rootCmd.Flags().BoolVar(&opts.HTTPOnly, "http-only", false, "serve HTTP only")
	rootCmd.Flags().BoolVar(&opts.HTTPSOnly, "https-only", false, "serve HTTPS only")
	rootCmd.Flags().StringVar((*string)(&opts.CertMode), "cert-mode", "self-signed", "none|self-signed|custom")
	rootCmd.Flags().StringVar(&opts.CertFile, "cert-file", "", "PEM certificate path (cert-mode=custom)")
	rootCmd.Flags().StringVar(&opts.KeyFile, "key-file", "", "PEM key path (cert-mode=custom)")
	rootCmd.Flags().StringVar(&opts.RequestLogDir, "request-log", "", "directory to mirror request/response pairs into")
	rootCmd.Flags().StringVar((*string)(&opts.RequestLogFormat), "request-log-format", "json", "json|yaml")
	rootCmd.Flags().IntVar(&opts.RequestLogWorkers, "request-log-workers", 2, "log pipeline worker count")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(opts *config.Options, sink diag.Sink) error {
	coordinator, err := reload.New(opts.Directory, sink, reload.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("initial compile: %w", err)
	}

	watcher, err := watch.New(opts.Directory, sink)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	go watcher.Run()
	defer watcher.Close()
	go coordinator.Run(watcher.Events)
	defer coordinator.Stop()

	var logs *requestlog.Pipeline
	if opts.RequestLogDir != "" {
		logs = requestlog.New(opts.RequestLogDir, requestlog.Format(opts.RequestLogFormat), opts.RequestLogWorkers, sink)
		logs.Start()
		defer logs.Stop()
	}

	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	app := server.New(server.Dependencies{
		Coordinator: coordinator,
		Logs:        logs,
		IDs:         ulid.NewGenerator(),
		Sink:        sink,
		ShutdownCtx: shutdownCtx,
	})

	var wg sync.WaitGroup
	serveErrs := make(chan error, 2)

	if !opts.HTTPSOnly {
		addr := fmt.Sprintf(":%d", opts.HTTPPort)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Success(fmt.Sprintf("listening on http://localhost%s", addr))
			if err := app.Listen(addr); err != nil {
				serveErrs <- fmt.Errorf("http listener: %w", err)
			}
		}()
	}

	if !opts.HTTPOnly && opts.CertMode != config.CertModeNone {
		cert, err := loadCertificate(opts)
		if err != nil {
			return err
		}
		ln, err := tls.Listen("tcp", fmt.Sprintf(":%d", opts.HTTPSPort), &tls.Config{Certificates: []tls.Certificate{cert}})
		if err != nil {
			return fmt.Errorf("https listener: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Success(fmt.Sprintf("listening on https://localhost:%d", opts.HTTPSPort))
			if err := app.Listener(ln); err != nil {
				serveErrs <- fmt.Errorf("https listener: %w", err)
			}
		}()
	}

	if os.Getpid() == 1 {
		go reapChildren()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		sink.Warn(fmt.Sprintf("received %s, shutting down gracefully", sig))
	case err := <-serveErrs:
		sink.Error(err.Error())
	}

	shutdown()

	done := make(chan struct{})
	go func() {
		_ = app.ShutdownWithTimeout(shutdownGrace)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace + time.Second):
	}

	wg.Wait()
	return nil
}

func loadCertificate(opts *config.Options) (tls.Certificate, error) {
	switch opts.CertMode {
	case config.CertModeSelfSigned:
		return tlsutil.SelfSigned()
	case config.CertModeCustom:
		return tlsutil.LoadCustom(opts.CertFile, opts.KeyFile)
	default:
		return tls.Certificate{}, fmt.Errorf("unsupported cert mode %q", opts.CertMode)
	}
}

// reapChildren waits on SIGCHLD and reaps zombie descendants, required
// when this process runs as PID 1 (e.g. inside a minimal container).
func reapChildren() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGCHLD)
	for range sigCh {
		for {
			var status syscall.WaitStatus
			pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG, nil)
			if pid <= 0 || err != nil {
				break
			}
		}
	}
}


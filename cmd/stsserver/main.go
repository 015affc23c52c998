package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perimeterlabs/secureclient/cmd/flags"
	"github.com/perimeterlabs/secureclient/stsserver"
	"github.com/perimeterlabs/secureclient/tlssettings"
)

var serverFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8443",
		Usage: "address to listen on for the token service",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "127.0.0.1:8090",
		Usage: "address to listen on for Prometheus metrics",
	},
	&cli.StringFlag{
		Name:  "issuer",
		Value: "sts-stub",
		Usage: "issuer name stamped into minted assertions",
	},
	&cli.StringFlag{
		Name:  "subject-name",
		Value: "system",
		Usage: "principal asserted for system callers",
	},
	&cli.DurationFlag{
		Name:  "token-lifetime",
		Value: 30 * time.Minute,
		Usage: "validity window of minted assertions",
	},
	&cli.BoolFlag{
		Name:  "no-tls",
		Value: false,
		Usage: "serve plain http instead of generating a self-signed certificate",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}, flags.LoggingFlags...)

func main() {
	app := &cli.App{
		Name:  "sts-server",
		Usage: "Serve a WS-Trust security token service stub for local development",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			logger := flags.SetupLogger(cCtx)

			cfg := &stsserver.Config{
				ListenAddr:               listenAddr,
				MetricsAddr:              cCtx.String("metrics-addr"),
				EnablePprof:              cCtx.Bool("pprof"),
				Log:                      logger,
				DrainDuration:            time.Duration(cCtx.Int64("drain-seconds")) * time.Second,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}

			if !cCtx.Bool("no-tls") {
				host, _, err := net.SplitHostPort(listenAddr)
				if err != nil || host == "" {
					host = "localhost"
				}
				cert, err := tlssettings.SelfSignedCert(host)
				if err != nil {
					logger.Error("Failed to generate server certificate", "err", err)
					return err
				}
				cfg.TLSCert = &cert
			}

			handler := stsserver.NewHandler(&stsserver.HandlerConfig{
				Issuer:        cCtx.String("issuer"),
				SubjectName:   cCtx.String("subject-name"),
				TokenLifetime: cCtx.Duration("token-lifetime"),
				Log:           logger,
			})

			server, err := stsserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

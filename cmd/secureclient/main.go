package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perimeterlabs/secureclient/cmd/flags"
	"github.com/perimeterlabs/secureclient/secureclient"
)

var clientFlags = append(append(append([]cli.Flag{
	&cli.StringFlag{
		Name:     "endpoint",
		Required: true,
		Usage:    "endpoint URL of the service to call",
	},
	&cli.StringFlag{
		Name:  "path",
		Value: "/",
		Usage: "path to GET, relative to the endpoint",
	},
	&cli.StringFlag{
		Name:  "service-name",
		Value: "RemoteService",
		Usage: "name of the remote service interface",
	},
	&cli.StringFlag{
		Name:  "identity",
		Value: "system",
		Usage: "identity to call with: 'system' mints a token via the STS, 'subject' uses assertion-file",
	},
	&cli.StringFlag{
		Name:  "assertion-file",
		Usage: "file with the subject's assertion XML (required when identity is 'subject')",
	},
	&cli.StringFlag{
		Name:  "subject-name",
		Value: "user",
		Usage: "principal name of the subject",
	},
	&cli.StringFlag{
		Name:  "username",
		Usage: "basic-auth username",
	},
	&cli.StringFlag{
		Name:    "password",
		Usage:   "basic-auth password",
		EnvVars: []string{"SECURECLIENT_PASSWORD"},
	},
	&cli.BoolFlag{
		Name:  "disable-cn-check",
		Value: false,
		Usage: "skip hostname verification during the TLS handshake",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Value: 30 * time.Second,
		Usage: "per-request timeout, including the token exchange",
	},
}, flags.LoggingFlags...), flags.TLSFlags...), flags.BrokerFlags...)

func main() {
	app := &cli.App{
		Name:  "secure-client",
		Usage: "Call a secured service endpoint with a system or subject identity",
		Flags: clientFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			builder, err := secureclient.NewBuilder(flags.TLSProvider(cCtx), flags.BrokerConfig(cCtx), logger)
			if err != nil {
				logger.Error("Failed to create builder", "err", err)
				return err
			}

			opts := []secureclient.Option{
				secureclient.WithRequestTimeout(cCtx.Duration("timeout")),
				secureclient.WithBasicAuth(cCtx.String("username"), cCtx.String("password")),
			}
			if cCtx.Bool("disable-cn-check") {
				opts = append(opts, secureclient.WithDisableCNCheck())
			}

			factory, err := builder.BuildFactory(cCtx.String("endpoint"),
				&secureclient.ServiceContract{Name: cCtx.String("service-name")}, opts...)
			if err != nil {
				logger.Error("Failed to build client factory", "err", err)
				return err
			}

			var client *secureclient.Client
			switch identity := cCtx.String("identity"); identity {
			case "system":
				client, err = factory.ClientForSystem(cCtx.Context)
			case "subject":
				var assertion []byte
				assertion, err = os.ReadFile(cCtx.String("assertion-file"))
				if err != nil {
					logger.Error("Failed to read assertion file", "err", err)
					return err
				}
				client, err = factory.ClientForSubject(&secureclient.PlatformSubject{
					Name:      cCtx.String("subject-name"),
					Assertion: assertion,
				})
			default:
				return fmt.Errorf("invalid identity: %s", identity)
			}
			if err != nil {
				logger.Error("Failed to create client", "err", err)
				return err
			}

			resp, err := client.Get(cCtx.Context, cCtx.String("path"))
			if err != nil {
				logger.Error("Request failed", "err", err)
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				logger.Error("Failed to read response", "err", err)
				return err
			}

			logger.Info("Request completed", "status", resp.StatusCode, "bytes", len(body))
			fmt.Println(string(body))
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

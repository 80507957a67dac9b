package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"

	"github.com/swaanand-ops/outlook-mail-reader/internal/config"
	"github.com/swaanand-ops/outlook-mail-reader/internal/graph"
	"github.com/swaanand-ops/outlook-mail-reader/internal/instrumentation"
	"github.com/swaanand-ops/outlook-mail-reader/internal/logging"
	"github.com/swaanand-ops/outlook-mail-reader/internal/msauth"
	"github.com/swaanand-ops/outlook-mail-reader/internal/outlook"
)

const meterName = "github.com/swaanand-ops/outlook-mail-reader"

// pipeline bundles the wired-up layers a command needs.
type pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	auth    *msauth.Manager
}

// newPipeline loads configuration and wires the token manager. The Graph
// client and reader are built per command on top of it.
func newPipeline() (*pipeline, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(cfg.LogLevel)

	metrics, err := instrumentation.NewMetrics(otel.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	opts := msauth.Options{
		TenantID:    cfg.TenantID,
		ClientID:    cfg.ClientID,
		AccessToken: cfg.AccessToken,
		Logger:      logger,
		Metrics:     metrics,
	}
	if cfg.AccessToken == "" {
		store, err := msauth.NewFileStore()
		if err != nil {
			return nil, fmt.Errorf("failed to open token cache: %w", err)
		}
		opts.Store = store
	}
	auth, err := msauth.NewManager(opts)
	if err != nil {
		return nil, err
	}

	return &pipeline{cfg: cfg, logger: logger, metrics: metrics, auth: auth}, nil
}

// reader builds the search pipeline over an authenticated Graph client.
func (p *pipeline) reader(folder string) *outlook.Reader {
	retry := graph.DefaultRetryPolicy()
	retry.MaxAttempts = uint(p.cfg.MaxRetries)

	client := graph.NewClient(p.auth,
		graph.WithLogger(p.logger),
		graph.WithMetrics(p.metrics),
		graph.WithRetryPolicy(retry),
	)

	opts := []outlook.ReaderOption{
		outlook.WithPageSize(p.cfg.PageSize),
		outlook.WithReaderLogger(p.logger),
		outlook.WithReaderMetrics(p.metrics),
	}
	if folder != "" {
		opts = append(opts, outlook.WithFolder(folder))
	}
	return outlook.NewReader(client, opts...)
}

// printChallenge shows the device-code instructions on stderr so stdout
// stays clean for results.
func printChallenge(cmd *cobra.Command, dc *oauth2.DeviceAuthResponse) {
	if dc.VerificationURIComplete != "" {
		cmd.PrintErrf("To sign in, open %s and confirm the code %s\n", dc.VerificationURIComplete, dc.UserCode)
		return
	}
	cmd.PrintErrf("To sign in, open %s and enter the code %s\n", dc.VerificationURI, dc.UserCode)
}

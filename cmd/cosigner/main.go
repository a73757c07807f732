package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/muun/cosigner/internal/config"
	"github.com/muun/cosigner/internal/core/application"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	appConfig *application.Config
	registry  *prometheus.Registry
	stopStats context.CancelFunc

	datadirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "data directory, overrides COSIGNER_DATADIR",
	}
	networkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "bitcoin network, overrides COSIGNER_NETWORK",
	}
	partyFlag = &cli.StringFlag{
		Name:     "party",
		Usage:    "user or service",
		Required: true,
	}
	passwordFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "the passphrase protecting the party key",
		Required: true,
	}
	pstIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "the id of the pst",
		Required: true,
	}
	expFlag = &cli.StringFlag{
		Name:     "expectations",
		Usage:    "path of the JSON signing expectations",
		Required: true,
	}
	auditExpFlag = &cli.StringFlag{
		Name:  "expectations",
		Usage: "path of the JSON signing expectations to audit the result against",
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "cosigner"
	app.Usage = "Command line interface of the 2-of-2 co-signing and recovery engine"
	app.Flags = []cli.Flag{datadirFlag, networkFlag}
	app.Before = setup
	app.After = teardown
	app.Commands = append(
		app.Commands,
		&keys,
		&address,
		&pst,
		&recoveryCmd,
		&decode,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func setup(ctx *cli.Context) error {
	overrides := map[string]string{
		config.DatadirKey: ctx.String(datadirFlag.Name),
		config.NetworkKey: ctx.String(networkFlag.Name),
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := os.Setenv("COSIGNER_"+key, value); err != nil {
			return err
		}
	}
	if err := config.InitConfig(); err != nil {
		return err
	}

	registry = prometheus.NewRegistry()
	appConfig = config.ApplicationConfig()
	appConfig.Registerer = registry

	if config.GetBool(config.MetricsEnabledKey) {
		var statsCtx context.Context
		statsCtx, stopStats = context.WithCancel(context.Background())
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(statsCtx, interval, registry, "")
	}
	return nil
}

func teardown(_ *cli.Context) error {
	if stopStats != nil {
		stopStats()
		path := filepath.Join(
			config.GetMetricsDir(), fmt.Sprintf("metrics-%d.txt", time.Now().Unix()),
		)
		if err := stats.DumpMetrics(registry, path); err != nil {
			log.WithError(err).Warn("failed to dump metrics")
		}
	}
	if appConfig != nil {
		appConfig.Close()
	}
	return nil
}

// services validates the config lazily so that commands not touching the
// database don't open it.
func services() (*application.Config, error) {
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}
	return appConfig, nil
}

func parseParty(ctx *cli.Context) (domain.Party, error) {
	return domain.ParseParty(ctx.String(partyFlag.Name))
}

func readExpectations(path string) (*domain.SigningExpectations, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var exp application.ExpectationsJSON
	if err := json.Unmarshal(raw, &exp); err != nil {
		return nil, fmt.Errorf("invalid expectations file: %w", err)
	}
	return exp.ToDomain()
}

func printJSON(resp interface{}) error {
	out, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return fmt.Errorf("unable to encode response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[cosigner] %v\n", err)
	}
	os.Exit(1)
}

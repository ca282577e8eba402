// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/thor-dao/api"
	"github.com/vechain/thor-dao/cmd/thor-dao/httpserver"
	"github.com/vechain/thor-dao/log"
	"github.com/vechain/thor-dao/metrics"
	"github.com/vechain/thor-dao/solo"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Thor DAO",
		Usage:     "Stake weighted governance node for test & dev",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			persistFlag,
			configFlag,
			adminFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			blockIntervalFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	initLogger(ctx)

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		// must precede the first meter lookup
		metrics.InitializePrometheusMetrics()
	}

	config, gene, err := loadConfig(ctx.String(configFlag.Name), ctx.String(adminFlag.Name))
	if err != nil {
		return err
	}
	interval := ctx.Uint64(blockIntervalFlag.Name)
	if interval == 0 {
		return fmt.Errorf("--%s must be positive", blockIntervalFlag.Name)
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "err", err)
		}
	}()

	node, err := solo.New(db, config, gene, solo.Options{BlockInterval: time.Duration(interval) * time.Second})
	if err != nil {
		return err
	}
	defer node.Close()

	apiURL, stopAPI, err := httpserver.StartAPIServer(ctx.String(apiAddrFlag.Name), node, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   enableMetrics,
	})
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	metricsURL := ""
	if enableMetrics {
		url, stopMetrics, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); stopMetrics() }()
		metricsURL = url
	}

	logger.Info("node started",
		"version", fullVersion(),
		"api", apiURL,
		"metrics", metricsURL,
		"epochPeriod", config.EpochPeriod,
		"admin", config.Admin,
		"bestBlock", node.BestBlock(),
	)

	exitCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(exitCtx)
	group.Go(func() error {
		return node.Run(groupCtx)
	})
	group.Go(func() error {
		return watchEpochs(groupCtx, node)
	})
	return group.Wait()
}

// watchEpochs logs the first block of each epoch.
func watchEpochs(ctx context.Context, node *solo.Solo) error {
	ch := make(chan *solo.Block, 16)
	sub := node.SubscribeBlocks(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case b := <-ch:
			if node.DAO().Clock().FirstBlockOf(b.Epoch) == b.Number {
				logger.Info("epoch started", "epoch", b.Epoch, "block", b.Number)
			}
		}
	}
}

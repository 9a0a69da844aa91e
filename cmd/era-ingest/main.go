// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// era-ingest turns era archives from a remote origin into queryable analytics
// tables, one atomically tracked era at a time.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/gnosischain/era-ingest/internal/config"
	"github.com/gnosischain/era-ingest/internal/pipeline"
)

func main() {
	app := &cli.App{
		Name:  "era-ingest",
		Usage: "ingest beacon-chain era files into the analytics warehouse",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if c.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			processCommand(),
			statusCommand(),
			cleanCommand(),
			initSchemaCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("era-ingest failed")
	}
}

func withOperator(c *cli.Context, run func(ctx context.Context, op *pipeline.Operator) error) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	op, err := pipeline.NewOperator(ctx, cfg)
	if err != nil {
		return err
	}
	defer op.Close()
	return run(ctx, op)
}

func processCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "download, decode and load a range of eras",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "network", Required: true, Usage: "mainnet, gnosis or sepolia"},
			&cli.Uint64Flag{Name: "start", Usage: "first era of the range"},
			&cli.Uint64Flag{Name: "end", Usage: "last era of the range (omit for open-ended)"},
			&cli.StringSliceFlag{Name: "datasets", Usage: "datasets to extract (default: all)"},
			&cli.BoolFlag{Name: "force", Usage: "clean and re-process already completed eras"},
		},
		Action: func(c *cli.Context) error {
			return withOperator(c, func(ctx context.Context, op *pipeline.Operator) error {
				var end *uint64
				if c.IsSet("end") {
					v := c.Uint64("end")
					end = &v
				}
				summary, err := op.ProcessRange(ctx, c.String("network"), c.Uint64("start"), end, c.StringSlice("datasets"), c.Bool("force"))
				if err != nil {
					return err
				}
				fmt.Printf("processed=%d failed=%d total_records=%d\n", summary.Processed, summary.Failed, summary.TotalRecords)
				if summary.Failed > 0 {
					return cli.Exit(fmt.Sprintf("%d eras failed", summary.Failed), 1)
				}
				return nil
			})
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "report completion counters for a network",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "network", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withOperator(c, func(ctx context.Context, op *pipeline.Operator) error {
				status, err := op.Status(ctx, c.String("network"))
				if err != nil {
					return err
				}
				last := "never"
				if status.LastCompletionAt != nil {
					last = status.LastCompletionAt.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("completed=%d failed=%d last_completion_at=%s\n", status.CompletedCount, status.FailedCount, last)
				return nil
			})
		},
	}
}

func cleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "delete all rows and completion records of an era range",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "network", Required: true},
			&cli.Uint64Flag{Name: "start", Required: true},
			&cli.Uint64Flag{Name: "end", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withOperator(c, func(ctx context.Context, op *pipeline.Operator) error {
				return op.Clean(ctx, c.String("network"), c.Uint64("start"), c.Uint64("end"))
			})
		},
	}
}

func initSchemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-schema",
		Usage: "create the warehouse tables and views",
		Action: func(c *cli.Context) error {
			return withOperator(c, func(ctx context.Context, op *pipeline.Operator) error {
				return op.InitSchema(ctx)
			})
		},
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	tradegrpc "github.com/wyfcoding/tradelifecycle/internal/trade/interfaces/grpc"
	"github.com/wyfcoding/tradelifecycle/pkg/grpcclient"
	"github.com/wyfcoding/tradelifecycle/pkg/mq"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func addOpsCommands(rootCmd *cobra.Command, a *app) {
	rootCmd.AddCommand(newHealthCmd(a))
	rootCmd.AddCommand(newEventsCmd(a))
}

func newHealthCmd(a *app) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the gRPC health endpoint of a running service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				cfg, err := a.config()
				if err != nil {
					return err
				}
				addr = fmt.Sprintf("localhost:%d", cfg.GRPC.Port)
			}
			conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
				Target:      addr,
				ConnTimeout: int(timeout.Seconds()),
				MaxRetries:  2,
				RetryDelay:  200,
			})
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			status, err := grpcclient.CheckHealth(ctx, conn, tradegrpc.ServiceName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", addr, status)
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service is %s", status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC address, defaults to localhost:<grpc.port>")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func newEventsCmd(a *app) *cobra.Command {
	var (
		group string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail lifecycle events from Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if len(cfg.Kafka.Brokers) == 0 {
				return fmt.Errorf("kafka.brokers is not configured")
			}
			consumer := mq.NewConsumer(mq.KafkaConfig{Brokers: cfg.Kafka.Brokers, GroupID: group}, cfg.Kafka.Topic)
			defer consumer.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			seen := 0
			return consumer.Consume(ctx, func(_ context.Context, key string, value []byte) error {
				fmt.Fprintf(cmd.OutOrStdout(), "trade=%s %s\n", key, value)
				seen++
				if limit > 0 && seen >= limit {
					cancel()
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "consumer group; empty reads new messages only")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many events, 0 for no limit")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/tradelifecycle/pkg/config"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"github.com/wyfcoding/tradelifecycle/pkg/logger"
)

// app 命令共享的依赖，按需延迟初始化
type app struct {
	configPath string
	driver     string
	dsn        string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "tradectl",
		Short:         "Operations CLI for the trade lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if a.debug {
				level = "debug"
			}
			l, err := logger.New(logger.Config{Level: level, Format: "text", Output: "stdout"})
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "configs/tradelifecycle/config.toml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&a.driver, "db-driver", "", "override database driver (mysql, postgres, sqlite)")
	rootCmd.PersistentFlags().StringVar(&a.dsn, "dsn", "", "override database DSN")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	addDatabaseCommands(rootCmd, a)
	addCashflowCommands(rootCmd, a)
	addAuthCommands(rootCmd, a)
	addOpsCommands(rootCmd, a)
	return rootCmd
}

// config 加载配置，命令行参数优先
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.LoadWithDefaults(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.driver != "" {
		cfg.Database.Driver = a.driver
	}
	if a.dsn != "" {
		cfg.Database.DSN = a.dsn
	}
	a.cfg = cfg
	return cfg, nil
}

// openDB 打开数据库，调用方负责关闭
func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	database, err := db.Init(ctx, db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         a.debug,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

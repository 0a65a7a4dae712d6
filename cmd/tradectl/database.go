package main

import (
	"fmt"

	"github.com/spf13/cobra"
	authapp "github.com/wyfcoding/tradelifecycle/internal/auth/application"
	"github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/directory"
	authmysql "github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/persistence/mysql"
	"github.com/wyfcoding/tradelifecycle/internal/bootstrap"
	refapp "github.com/wyfcoding/tradelifecycle/internal/referencedata/application"
	refmysql "github.com/wyfcoding/tradelifecycle/internal/referencedata/infrastructure/persistence/mysql"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

func addDatabaseCommands(rootCmd *cobra.Command, a *app) {
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newSeedCmd(a))
	rootCmd.AddCommand(newPrivilegesCmd(a))
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()
			if err := bootstrap.Migrate(database.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load default reference data, users and role privileges",
		Long: `Load the default trade statuses, leg rate types, schedules, pay/receive flags,
business day conventions, demo book, counterparty and users, and grant the
default privileges to each role. Running it again leaves the data unchanged.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()
			if err := bootstrap.Migrate(database.DB); err != nil {
				return err
			}
			if err := bootstrap.Seed(ctx, database, a.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed completed")
			return nil
		},
	}
}

func newPrivilegesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privileges",
		Short: "List, grant or revoke role privileges",
	}

	withService := func(run func(cmd *cobra.Command, svc *authapp.AuthorizationService, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()
			refs := refapp.NewReferenceService(refmysql.NewReferenceRepository(database.DB), nil, nil, a.logger)
			svc := authapp.NewAuthorizationService(directory.NewReferenceUserDirectory(refs), authmysql.NewPrivilegeRepository(database.DB), nil, nil, a.logger)
			return run(cmd, svc, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list ROLE",
		Short: "List the privileges of a role",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, svc *authapp.AuthorizationService, args []string) error {
			ops, err := svc.Privileges(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, op := range ops {
				fmt.Fprintln(cmd.OutOrStdout(), op)
			}
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "grant ROLE PRIVILEGE",
		Short: "Grant a privilege to a role",
		Args:  cobra.ExactArgs(2),
		RunE: withService(func(cmd *cobra.Command, svc *authapp.AuthorizationService, args []string) error {
			return svc.Grant(cmd.Context(), args[0], tradedomain.Operation(args[1]))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke ROLE PRIVILEGE",
		Short: "Revoke a privilege from a role",
		Args:  cobra.ExactArgs(2),
		RunE: withService(func(cmd *cobra.Command, svc *authapp.AuthorizationService, args []string) error {
			return svc.Revoke(cmd.Context(), args[0], tradedomain.Operation(args[1]))
		}),
	})
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/infrastructure"
	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/database"
)

const (
	flagPassword = "password"
	flagMail     = "mail"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage registry accounts",
		RunE:    func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	cmd.AddCommand(newUsersAddCmd())
	return cmd
}

func newUsersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add {name}",
		Short: "Create an account with a bcrypt-hashed password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := cmd.Flags().GetString(flagPassword)
			if err != nil {
				return err
			}
			mail, err := cmd.Flags().GetString(flagMail)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := infrastructure.NewLogger()

			db, err := database.New(&cfg.Database, nil, logger)
			if err != nil {
				return err
			}
			conn := db.Connection()
			defer conn.Close()

			if err := db.Ping(cmd.Context()); err != nil {
				return err
			}

			err = users.New(conn, logger).Create(cmd.Context(), users.CreateCommand{
				Name:     args[0],
				Password: password,
				Mail:     mail,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user %s created\n", args[0])
			return err
		},
	}
	cmd.Flags().String(flagPassword, "", "account password")
	cmd.Flags().String(flagMail, "", "contact address")
	_ = cmd.MarkFlagRequired(flagPassword)
	return cmd
}

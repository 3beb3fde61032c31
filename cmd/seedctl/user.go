package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mes-labs/plantquery/internal/auth"
	"github.com/mes-labs/plantquery/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user <user_id> <password>",
	Short: "Create an app user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, password := args[0], args[1]

		dbStore, err := store.NewSQLiteStore(viper.GetString("app.db_path"))
		if err != nil {
			return err
		}
		defer dbStore.Close()

		existing, err := dbStore.GetUserByExternalID(userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %q already exists", userID)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user, err := dbStore.CreateUser(userID, hash)
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (id %d)\n", user.ExternalUserID, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
}

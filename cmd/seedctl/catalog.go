package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mes-labs/plantquery/internal/catalog"
	"github.com/mes-labs/plantquery/internal/store"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Seed the term dictionary, schema metadata and knowledge notes",
	Long: `Replaces the app database's catalogs with the built-in defaults.
The server reads these once at startup; rerun this command and restart
the server after editing the defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbStore, err := store.NewSQLiteStore(viper.GetString("app.db_path"))
		if err != nil {
			return err
		}
		defer dbStore.Close()

		terms := catalog.DefaultTerms()
		tables := catalog.DefaultTables()
		knowledge := catalog.DefaultKnowledge()

		if err := dbStore.ReplaceCatalog(terms, tables, knowledge); err != nil {
			return err
		}

		columns := 0
		for _, t := range tables {
			columns += len(t.Columns)
		}
		fmt.Printf("Seeded %d term entries, %d tables (%d columns), %d knowledge notes\n",
			len(terms), len(tables), columns, len(knowledge))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

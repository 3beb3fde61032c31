package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mes-labs/plantquery/internal/dialect"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "seedctl",
	Short: "Seeding tool for the plant query service",
	Long: `seedctl manages the two stores behind the plant query service:
the app database (catalogs and users) and the manufacturing database
(tables, views and sample production data for development).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./seedctl.yaml)")
	rootCmd.PersistentFlags().String("app-db", "plantquery.db", "Path to the app SQLite database")
	rootCmd.PersistentFlags().String("dsn", "", "Manufacturing store DSN")
	rootCmd.PersistentFlags().String("driver", "", "Manufacturing store driver (mysql or postgres, default sniffed from DSN)")

	viper.BindPFlag("app.db_path", rootCmd.PersistentFlags().Lookup("app-db"))
	viper.BindPFlag("mfg.dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("mfg.driver", rootCmd.PersistentFlags().Lookup("driver"))

	// Share the server's environment variables so one .env works for both.
	viper.BindEnv("app.db_path", "APP_DB_PATH")
	viper.BindEnv("mfg.dsn", "MFG_DB_DSN")
	viper.BindEnv("mfg.driver", "MFG_DB_DRIVER")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("seedctl")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// openMfg connects to the manufacturing store using the configured DSN,
// sniffing the driver from the DSN shape when none is given.
func openMfg() (*sql.DB, dialect.Dialect, error) {
	dsn := viper.GetString("mfg.dsn")
	if dsn == "" {
		return nil, nil, fmt.Errorf("manufacturing DSN is required (via --dsn, config or MFG_DB_DSN)")
	}

	driver := viper.GetString("mfg.driver")
	if driver == "" {
		driver = dialect.DetectDriver(dsn)
	}
	d := dialect.GetDialect(driver)

	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return db, d, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mes-labs/plantquery/internal/api"
	"github.com/mes-labs/plantquery/internal/catalog"
	"github.com/mes-labs/plantquery/internal/config"
	"github.com/mes-labs/plantquery/internal/core"
	"github.com/mes-labs/plantquery/internal/dialect"
	"github.com/mes-labs/plantquery/internal/mfgdb"
	"github.com/mes-labs/plantquery/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for catalog seeding
	seedFlag := flag.Bool("seed", false, "Seed the built-in catalogs into the app database and exit")
	flag.Parse()

	// Initialize application store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.AppDBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Handle catalog seeding if flag is set
	if *seedFlag {
		log.Println("Seeding built-in catalogs...")
		if err := dbStore.ReplaceCatalog(catalog.DefaultTerms(), catalog.DefaultTables(), catalog.DefaultKnowledge()); err != nil {
			log.Fatalf("Catalog seeding failed: %v", err)
		}
		log.Println("Catalog seeding complete. Exiting.")
		return
	}

	// Load the catalogs once; they are shared read-only across requests.
	// An unseeded store falls back to the compiled-in defaults so the
	// service works out of the box.
	snap, err := dbStore.LoadCatalog()
	if err != nil {
		log.Fatalf("Failed to load catalogs: %v", err)
	}
	if snap.Empty() {
		log.Println("App database has no catalogs, using built-in defaults (run with -seed to persist them)")
		snap = catalog.New(catalog.DefaultTerms(), catalog.DefaultTables(), catalog.DefaultKnowledge())
	}

	// Resolve the manufacturing store dialect
	driver := config.AppConfig.MfgDBDriver
	if driver == "" {
		driver = dialect.DetectDriver(config.AppConfig.MfgDBDSN)
	}
	d := dialect.GetDialect(driver)

	executor, err := mfgdb.Open(d.Driver(), config.AppConfig.MfgDBDSN)
	if err != nil {
		log.Fatalf("Failed to open manufacturing store: %v", err)
	}
	defer executor.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := executor.Ping(pingCtx); err != nil {
		log.Printf("Warning: manufacturing store unreachable at startup: %v", err)
	}
	cancelPing()

	// Initialize the query pipeline
	queryService := core.NewQueryService(
		snap,
		d,
		config.AppConfig.MaxRowLimit,
		time.Duration(config.AppConfig.QueryTimeoutSeconds)*time.Second,
		executor,
		dbStore,
	)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(queryService, dbStore)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Query execution can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received
	log.Println("Shutting down server...")

	// Create a context with a timeout for the shutdown.
	// This gives active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel() // Release resources if srv.Shutdown completes before timeout

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

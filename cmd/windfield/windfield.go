package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/windfield/internal/api"
	"github.com/banshee-data/windfield/internal/config"
	"github.com/banshee-data/windfield/internal/export"
	"github.com/banshee-data/windfield/internal/report"
	"github.com/banshee-data/windfield/internal/wind"
	"github.com/banshee-data/windfield/internal/winddb"
)

var (
	dbFile         = flag.String("db", "windfield.db", "Path to the SQLite database file")
	instrumentFile = flag.String("instrument", "", "Instrument YAML file (built-in wind-iris geometry when empty)")
	tuningFile     = flag.String("tuning", "", "Tuning JSON file")
	distance       = flag.Float64("distance", 120, "Range gate distance in meters")
	listen         = flag.String("listen", ":8080", "HTTP listen address for serve")
	outFile        = flag.String("out", "", "Export path for reconstruct results (.parquet, .csv, or .csv.gz)")
	reportDir      = flag.String("report-dir", ".", "Output directory for report files")
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "reconstruct":
		runReconstruct(false)
	case "hub":
		runReconstruct(true)
	case "serve":
		runServe()
	case "migrate":
		runMigrate(args[1:])
	case "report":
		if len(args) < 2 {
			log.Fatal("Usage: windfield report <run_id>")
		}
		runReport(args[1])
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Wind Field Reconstruction")
	fmt.Println()
	fmt.Println("Usage: windfield [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  reconstruct     Reconstruct the wind field from stored samples")
	fmt.Println("  hub             Reconstruct hub-height wind with strict window alignment")
	fmt.Println("  serve           Serve results over HTTP")
	fmt.Println("  report <id>     Write HTML report and profile plot for a run")
	fmt.Println("  migrate <cmd>   Manage the database schema (up, down, status)")
	fmt.Println("  help            Show this help message")
	fmt.Println()
	flag.PrintDefaults()
}

// loadConfigs assembles the wind configuration from the instrument
// and tuning files, falling back to built-in defaults.
func loadConfigs() (config.InstrumentConfig, *config.TuningConfig) {
	instrument := config.DefaultInstrumentConfig()
	if *instrumentFile != "" {
		loaded, err := config.LoadInstrumentConfig(*instrumentFile)
		if err != nil {
			log.Fatalf("Failed to load instrument config: %v", err)
		}
		instrument = loaded
	}

	tuning := config.EmptyTuningConfig()
	if *tuningFile != "" {
		loaded, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tuning = loaded
	}

	if !instrument.HasDistance(*distance) {
		log.Printf("Warning: distance %vm is not among the configured range gates %v", *distance, instrument.DistancesM)
	}

	return instrument, tuning
}

func runReconstruct(hub bool) {
	instrument, tuning := loadConfigs()
	cfg := instrument.WindConfig(*distance, tuning)
	hub = hub || tuning.GetHubExtrapolation()

	db, err := winddb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	samples, err := db.LoadSamples(*distance, 0, math.MaxInt64)
	if err != nil {
		log.Fatalf("Failed to load samples: %v", err)
	}
	if len(samples) == 0 {
		log.Fatalf("No samples stored for distance %vm", *distance)
	}
	log.Printf("Loaded %s samples for %vm gate", humanize.Comma(int64(len(samples))), *distance)

	runID, err := db.CreateRun(instrument.Name, *distance, cfg.MotionCompensation, len(samples))
	if err != nil {
		log.Fatalf("Failed to create run: %v", err)
	}

	start := time.Now()
	if hub {
		results, err := wind.ReconstructHubWind(samples, cfg)
		if err != nil {
			log.Fatalf("Hub reconstruction failed: %v", err)
		}
		if err := db.StoreHubWind(runID, results); err != nil {
			log.Fatalf("Failed to store hub wind: %v", err)
		}
		valid := 0
		for _, r := range results {
			if r.Valid {
				valid++
			}
		}
		log.Printf("Run %s: %s hub rows (%s valid) in %v",
			runID, humanize.Comma(int64(len(results))), humanize.Comma(int64(valid)), time.Since(start))
		return
	}

	descriptors, err := wind.ReconstructWindfield(samples, cfg)
	if err != nil {
		log.Fatalf("Reconstruction failed: %v", err)
	}
	if err := db.StoreWindfield(runID, descriptors); err != nil {
		log.Fatalf("Failed to store windfield: %v", err)
	}
	log.Printf("Run %s: %s descriptors from %s samples in %v",
		runID, humanize.Comma(int64(len(descriptors))), humanize.Comma(int64(len(samples))), time.Since(start))

	if *outFile != "" {
		if err := export.ExportWindfieldFile(*outFile, descriptors); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Exported %s rows to %s", humanize.Comma(int64(len(descriptors))), *outFile)
	}
}

func runServe() {
	_, tuning := loadConfigs()

	db, err := winddb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	server := api.NewServer(db, tuning.GetUnits())
	mux := server.ServeMux()
	db.AttachAdminRoutes(mux)

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("HTTP server listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}

func runMigrate(args []string) {
	if len(args) < 1 {
		log.Fatal("Usage: windfield migrate <up|down|status>")
	}

	db, err := winddb.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch args[0] {
	case "up":
		log.Print("Running migrations...")
		if err := db.MigrateUp(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		version, dirty, _ := db.MigrateVersion()
		log.Printf("Current version: %d (dirty: %v)", version, dirty)

	case "down":
		log.Print("Rolling back one migration...")
		if err := db.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		version, dirty, _ := db.MigrateVersion()
		log.Printf("Current version: %d (dirty: %v)", version, dirty)

	case "status":
		version, dirty, err := db.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		latest, err := winddb.LatestMigrationVersion()
		if err != nil {
			log.Fatalf("Failed to get latest migration version: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		fmt.Printf("Latest available: %d\n", latest)
		fmt.Printf("Dirty: %v\n", dirty)

	default:
		log.Fatalf("Unknown migrate action: %s", args[0])
	}
}

func runReport(runID string) {
	db, err := winddb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	descriptors, err := db.Windfield(runID)
	if err != nil {
		log.Fatalf("Failed to load run %s: %v", runID, err)
	}
	if len(descriptors) == 0 {
		log.Fatalf("Run %s has no windfield rows", runID)
	}

	if err := os.MkdirAll(*reportDir, 0o755); err != nil {
		log.Fatalf("Failed to create report directory: %v", err)
	}

	htmlPath := fmt.Sprintf("%s/run-%s.html", *reportDir, runID)
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("Failed to create report file: %v", err)
	}
	if err := report.WriteHTMLReport(f, "Run "+runID, descriptors); err != nil {
		f.Close()
		log.Fatalf("Failed to render report: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	log.Printf("Wrote %s", htmlPath)

	summary := report.Summarize(descriptors)
	refHeight := math.NaN()
	for _, d := range descriptors {
		if !math.IsNaN(d.Lower.Height) {
			refHeight = d.Lower.Height
			break
		}
	}
	if math.IsNaN(refHeight) {
		log.Print("Skipping profile plot: run has no valid plane heights")
		return
	}

	pngPath := fmt.Sprintf("%s/run-%s-profile.png", *reportDir, runID)
	if err := report.SaveProfilePNG(pngPath, summary, refHeight, report.DefaultProfileConfig()); err != nil {
		log.Printf("Skipping profile plot: %v", err)
	} else {
		log.Printf("Wrote %s", pngPath)
	}
}

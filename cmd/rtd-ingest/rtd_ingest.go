// rtd-ingest loads raw lidar telemetry into the windfield database
// from RTD capture files, a serial port, a UDP stream, or a packet
// capture replay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/windfield/internal/telemetry"
	"github.com/banshee-data/windfield/internal/wind"
	"github.com/banshee-data/windfield/internal/winddb"
)

var (
	dbFile      = flag.String("db", "windfield.db", "Path to the SQLite database file")
	serialPort  = flag.String("serial", "", "Serial port to read records from (e.g. /dev/ttyUSB0)")
	baudRate    = flag.Int("baud", 115200, "Serial baud rate")
	udpAddress  = flag.String("udp", "", "UDP listen address for streamed records (e.g. :2368)")
	pcapFile    = flag.String("pcap", "", "Packet capture file to replay (requires -tags=pcap build)")
	pcapPort    = flag.Int("pcap-port", 2368, "UDP port to filter when replaying a capture")
	flushEvery  = flag.Int("flush", 512, "Records to buffer per range gate before writing")
	flushPeriod = flag.Duration("flush-period", 5*time.Second, "Maximum time to hold buffered records")
)

func main() {
	flag.Parse()

	db, err := winddb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	files := flag.Args()

	sources := 0
	for _, enabled := range []bool{len(files) > 0, *serialPort != "", *udpAddress != "", *pcapFile != ""} {
		if enabled {
			sources++
		}
	}
	if sources == 0 {
		fmt.Println("Usage: rtd-ingest [flags] [capture.csv ...]")
		fmt.Println()
		fmt.Println("Provide capture files as arguments, or one of -serial, -udp, -pcap.")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}
	if sources > 1 {
		log.Fatal("Choose a single ingest source: files, -serial, -udp, or -pcap")
	}

	switch {
	case len(files) > 0:
		ingestFiles(db, files)
	case *serialPort != "":
		ingestStream(db, func(ctx context.Context, fn func(telemetry.Record)) error {
			opts := telemetry.PortOptions{BaudRate: *baudRate}
			return telemetry.StreamSerial(ctx, *serialPort, opts, fn)
		})
	case *udpAddress != "":
		ingestStream(db, func(ctx context.Context, fn func(telemetry.Record)) error {
			listener := telemetry.NewUDPListener(telemetry.UDPListenerConfig{Address: *udpAddress})
			defer listener.Close()
			return listener.Start(ctx, fn)
		})
	case *pcapFile != "":
		ingestStream(db, func(ctx context.Context, fn func(telemetry.Record)) error {
			return telemetry.ReplayPCAP(ctx, *pcapFile, *pcapPort, fn)
		})
	}
}

func ingestFiles(db *winddb.DB, files []string) {
	total := int64(0)
	start := time.Now()

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", path, err)
		}
		records, err := telemetry.ReadRTDRecords(f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to parse %s: %v", path, err)
		}

		byGate := make(map[float64][]wind.Sample)
		for _, rec := range records {
			byGate[rec.Distance] = append(byGate[rec.Distance], rec.Sample)
		}
		for distance, samples := range byGate {
			if err := db.InsertSamples(distance, samples); err != nil {
				log.Fatalf("Failed to store samples from %s: %v", path, err)
			}
		}

		total += int64(len(records))
		log.Printf("%s: %s records across %d range gates", path, humanize.Comma(int64(len(records))), len(byGate))
	}

	log.Printf("Ingested %s records in %v", humanize.Comma(total), time.Since(start))
}

// ingestStream buffers streamed records per range gate and flushes
// them in batches so single-record transactions don't dominate.
func ingestStream(db *winddb.DB, run func(context.Context, func(telemetry.Record)) error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	buffers := make(map[float64][]wind.Sample)
	total := int64(0)

	flush := func() {
		mu.Lock()
		pending := buffers
		buffers = make(map[float64][]wind.Sample)
		mu.Unlock()

		for distance, samples := range pending {
			if len(samples) == 0 {
				continue
			}
			if err := db.InsertSamples(distance, samples); err != nil {
				log.Printf("Failed to store %d samples for %vm gate: %v", len(samples), distance, err)
			}
		}
	}

	// Periodic flush picks up trickling gates.
	go func() {
		ticker := time.NewTicker(*flushPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				flush()
			}
		}
	}()

	err := run(ctx, func(rec telemetry.Record) {
		mu.Lock()
		buffers[rec.Distance] = append(buffers[rec.Distance], rec.Sample)
		full := len(buffers[rec.Distance]) >= *flushEvery
		mu.Unlock()
		total++

		if full {
			flush()
		}
	})

	flush()

	if err != nil && err != context.Canceled {
		log.Fatalf("Ingest stream failed: %v", err)
	}
	log.Printf("Ingested %s records", humanize.Comma(total))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oculab-data/gaze.report/internal/api"
	"github.com/oculab-data/gaze.report/internal/config"
	"github.com/oculab-data/gaze.report/internal/db"
	"github.com/oculab-data/gaze.report/internal/gaze"
	"github.com/oculab-data/gaze.report/internal/trackermux"
	"github.com/oculab-data/gaze.report/internal/units"
	"github.com/oculab-data/gaze.report/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Replay fixtures.txt instead of opening the tracker port")
	listen      = flag.String("listen", ":8080", "Listen address")
	configPath  = flag.String("config", "", "Path to tuning config JSON")
	dbPath      = flag.String("db", "gaze_data.db", "Path to SQLite database (empty disables persistence)")
	portPath    = flag.String("port", "/dev/ttyUSB0", "Tracker serial port")
	targetUnits = flag.String("units", units.PX, "Display units for gaze distances")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// ingest parses tracker payloads and feeds gaze frames through the session,
// buffering emitted events for the periodic flusher.
func ingest(session *gaze.Session, buf *eventBuffer, payload string) {
	switch trackermux.ClassifyPayload(payload) {
	case trackermux.PayloadStatus:
		log.Printf("tracker status: %s", payload)
	case trackermux.PayloadGazeFrame:
		sample, err := trackermux.ParseFrame(payload)
		if err != nil {
			log.Printf("dropping malformed frame: %v", err)
			return
		}
		result := session.ProcessSample(sample)
		buf.add(result)
	default:
		log.Printf("ignoring unrecognised payload: %q", payload)
	}
}

// eventBuffer accumulates classified events between persistence flushes.
type eventBuffer struct {
	mu        sync.Mutex
	fixations []gaze.Fixation
	saccades  []gaze.Saccade
}

func (b *eventBuffer) add(result gaze.DetectionResult) {
	if result.Fixation == nil && result.Saccade == nil {
		return
	}
	b.mu.Lock()
	if result.Fixation != nil {
		b.fixations = append(b.fixations, *result.Fixation)
	}
	if result.Saccade != nil {
		b.saccades = append(b.saccades, *result.Saccade)
	}
	b.mu.Unlock()
}

func (b *eventBuffer) drain() ([]gaze.Fixation, []gaze.Saccade) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fixations, saccades := b.fixations, b.saccades
	b.fixations, b.saccades = nil, nil
	return fixations, saccades
}

func flush(database *db.DB, session *gaze.Session, buf *eventBuffer) {
	fixations, saccades := buf.drain()
	if err := database.InsertFixations(session.ID(), fixations); err != nil {
		log.Printf("failed to persist fixations: %v", err)
	}
	if err := database.InsertSaccades(session.ID(), saccades); err != nil {
		log.Printf("failed to persist saccades: %v", err)
	}
	if err := database.InsertMetricsSnapshot(session.ID(), time.Now().UnixMilli(), session.Metrics()); err != nil {
		log.Printf("failed to persist metrics snapshot: %v", err)
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	if !units.IsValid(*targetUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *targetUnits, units.GetValidUnitsString())
	}

	var m trackermux.TrackerMuxInterface
	if *devMode {
		data, err := os.ReadFile("fixtures.txt")
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		m = trackermux.NewMockTrackerMux(data)
	} else {
		hw, err := trackermux.NewRealTrackerMux(*portPath, trackermux.PortOptions{})
		if err != nil {
			log.Fatalf("failed to open tracker port: %v", err)
		}
		m = hw
	}
	defer m.Close()

	var database *db.DB
	if *dbPath != "" {
		var err error
		database, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()
	}

	session := gaze.NewSession(cfg.DetectorConfig(), cfg.GetSampleWindowSize())
	buf := &eventBuffer{}
	geom := units.Geometry{
		PitchMmPerPx:      cfg.GetScreenPitchMmPerPx(),
		ViewingDistanceMm: cfg.GetViewingDistanceMm(),
	}

	log.Print(version.String())
	log.Printf("session %s preset=%s threshold=%.1fpx", session.ID(), cfg.GetPreset(), cfg.GetDispersionThresholdPx())

	if database != nil {
		if err := database.InsertSession(session.ID(), cfg.GetPreset(), time.Now().UnixMilli()); err != nil {
			log.Fatalf("failed to record session: %v", err)
		}
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the tracker port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor tracker port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	if err := m.Initialize(); err != nil {
		log.Printf("tracker initialization failed: %v", err)
	}

	// subscribe to tracker payloads and feed them through the session
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := m.Subscribe()
		defer m.Unsubscribe(id)
		for {
			select {
			case payload := <-c:
				ingest(session, buf, payload)
			case <-ctx.Done():
				log.Printf("ingest routine terminated")
				return
			}
		}
	}()

	// periodic persistence flusher
	if database != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(cfg.GetFlushInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					flush(database, session, buf)
				case <-ctx.Done():
					// stop ingestion so the final flush sees settled state
					session.Close()
					flush(database, session, buf)
					_, last, samples := session.Span()
					if err := database.FinishSession(session.ID(), last, int64(samples), session.AveragePupilDiameter()); err != nil {
						log.Printf("failed to finish session: %v", err)
					}
					log.Printf("flush routine terminated")
					return
				}
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		handler := api.LoggingMiddleware(api.NewServer(m, session, database, *targetUnits, geom).ServeMux())

		server := &http.Server{
			Addr:    *listen,
			Handler: handler,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

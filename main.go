// Command trajectory-report reconstructs vehicle trajectories from GPS
// logger CSV files: optional coordinate smoothing, UTM projection,
// distance-based resampling and heading/yaw-rate estimation. Results are
// written next to the input as suffixed CSV files plus optional GeoJSON,
// chart and plot artifacts, and can be recorded to a sqlite run store
// served by the built-in HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/trajectory.report/internal/csvio"
	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/export"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/pipeline"
	"github.com/banshee-data/trajectory.report/internal/stats"
	"github.com/banshee-data/trajectory.report/internal/trace"
	"github.com/banshee-data/trajectory.report/internal/version"
	"github.com/banshee-data/trajectory.report/internal/visualize"
)

var (
	input     = flag.String("input", "", "Input CSV file")
	steps     = flag.String("steps", "smooth,project,resample,dt,kinematics", "Comma separated pipeline steps")
	day       = flag.String("day", "", "Process only this day (YYYY-MM-DD)")
	splitDays = flag.Bool("split-days", false, "Process each day in the input separately")

	latCol          = flag.String("lat-col", "", "Latitude column (default GPS_lat)")
	lonCol          = flag.String("lon-col", "", "Longitude column (default GPS_lon)")
	timeCol         = flag.String("time-col", "", "Timestamp column (default DatumZeit)")
	speedCol        = flag.String("speed-col", "", "Measured speed column in m/s (default Geschwindigkeit in m/s)")
	speedUnits      = flag.String("speed-units", "kph", "Speed units in exported artifacts: mps, mph, kmph or kph")
	smoothingMethod = flag.String("smoothing-method", "savitzky", "Smoothing method: savitzky or gaussian")
	minDistance     = flag.Float64("min-distance", 0, "Resampling distance threshold in metres (default 1.0)")
	utmZone         = flag.Int("utm-zone", 0, "UTM zone (default 33)")
	clipYawRate     = flag.Float64("clip-yaw-rate", 0, "Drop rows with |yaw rate| above this many deg/s (0 = keep all)")

	writeStats   = flag.Bool("stats", true, "Write a statistics report next to the output")
	writeGeoJSON = flag.Bool("geojson", false, "Write a GeoJSON track next to the output")
	writeHTML    = flag.Bool("html", false, "Write an HTML chart page next to the output")
	writePNG     = flag.Bool("png", false, "Write a PNG track plot next to the output")

	dbFile      = flag.String("db", "", "Record runs to this sqlite database")
	listen      = flag.String("listen", "", "Serve recorded runs on this address (requires -db)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if flag.Arg(0) == "migrate" {
		if *dbFile == "" {
			log.Fatal("migrate requires -db")
		}
		db.RunMigrateCommand(flag.Args()[1:], *dbFile)
		return
	}

	var store *db.DB
	if *dbFile != "" {
		var err error
		store, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open run store: %v", err)
		}
		defer store.Close()
	}

	if *input != "" {
		if err := process(store); err != nil {
			log.Fatalf("Processing failed: %v", err)
		}
	}

	if *listen != "" {
		if store == nil {
			log.Fatal("-listen requires -db")
		}
		serve(store)
		return
	}

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}
}

// process runs the pipeline over the input file, one trace per day when
// requested, and writes all artifacts next to the input.
func process(store *db.DB) error {
	requested, err := parseSteps(*steps)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(requested)
	if err != nil {
		return err
	}

	tr, err := csvio.LoadFile(*input)
	if err != nil {
		return fmt.Errorf("load %s: %w", *input, err)
	}
	log.Printf("Loaded %d rows from %s", tr.NumRows(), *input)

	traces := map[string]*trace.Trace{"": tr}
	switch {
	case *day != "":
		d, err := csvio.ParseDay(*day)
		if err != nil {
			return err
		}
		if err := kinematics.ParseTimes(tr, cfg.GetTimeCol()); err != nil {
			return err
		}
		filtered, err := tr.FilterDay(cfg.GetTimeCol(), d)
		if err != nil {
			return err
		}
		traces = map[string]*trace.Trace{*day: filtered}
	case *splitDays:
		if err := kinematics.ParseTimes(tr, cfg.GetTimeCol()); err != nil {
			return err
		}
		if traces, err = csvio.SplitByDay(tr, cfg.GetTimeCol()); err != nil {
			return err
		}
	}

	for _, dayKey := range sortedDayKeys(traces) {
		if err := processTrace(store, cfg, requested, dayKey, traces[dayKey]); err != nil {
			return err
		}
	}
	return nil
}

// sortedDayKeys fixes the per-day processing order: day keys are
// YYYY-MM-DD, so a lexical sort is chronological.
func sortedDayKeys(traces map[string]*trace.Trace) []string {
	keys := make([]string, 0, len(traces))
	for k := range traces {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func processTrace(store *db.DB, cfg *pipeline.Config, requested []pipeline.Step, dayKey string, tr *trace.Trace) error {
	inputRows := tr.NumRows()

	out, err := pipeline.Process(tr, cfg, requested)
	if err != nil {
		return err
	}

	if *clipYawRate > 0 && out.HasColumn(pipeline.YawRateCol) {
		before := out.NumRows()
		if out, err = kinematics.ClipYawRate(out, pipeline.YawRateCol, *clipYawRate); err != nil {
			return err
		}
		log.Printf("Yaw rate clip at %.1f deg/s dropped %d rows", *clipYawRate, before-out.NumRows())
	}

	suffixes := stepSuffixes(requested)
	if dayKey != "" {
		suffixes = append([]string{dayKey}, suffixes...)
	}
	outPath := csvio.WithSuffixes(*input, suffixes)
	if err := csvio.SaveFile(outPath, out); err != nil {
		return err
	}
	log.Printf("Wrote %d rows to %s", out.NumRows(), outPath)

	if err := writeArtifacts(cfg, outPath, out); err != nil {
		return err
	}

	if store != nil {
		id, err := store.RecordRun(filepath.Base(*input), dayKey, cfg, inputRows, out)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		log.Printf("Recorded run %s", id)
	}
	return nil
}

func writeArtifacts(cfg *pipeline.Config, outPath string, out *trace.Trace) error {
	base := strings.TrimSuffix(outPath, filepath.Ext(outPath))

	if *writeStats {
		report, err := stats.Compute(out, cfg.GetTimeCol(), cfg.GetLatCol(), cfg.GetLonCol())
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+"_stats.txt", []byte(report.String()), 0o644); err != nil {
			return err
		}
	}

	if *writeGeoJSON {
		f, err := os.Create(base + ".geojson")
		if err != nil {
			return err
		}
		err = export.WriteTrack(f, out, export.TrackOptions{
			LatCol:     cfg.GetLatCol(),
			LonCol:     cfg.GetLonCol(),
			TimeCol:    cfg.GetTimeCol(),
			SpeedCol:   cfg.GetSpeedCol(),
			SpeedUnits: *speedUnits,
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	if *writeHTML {
		f, err := os.Create(base + ".html")
		if err != nil {
			return err
		}
		err = visualize.RenderPage(f, out, visualize.PageOptions{
			XCol:       cfg.GetXCol(),
			YCol:       cfg.GetYCol(),
			SpeedCol:   cfg.GetSpeedCol(),
			YawRateCol: pipeline.YawRateCol,
			Title:      filepath.Base(base),
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	if *writePNG {
		f, err := os.Create(base + ".png")
		if err != nil {
			return err
		}
		err = visualize.TrackPNG(f, out, cfg.GetXCol(), cfg.GetYCol(), filepath.Base(base))
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// buildConfig maps the set command line flags onto pipeline options. Unset
// flags stay unset so the config defaults apply. The smoothing method is
// only bound when the smooth step actually runs; otherwise the projector
// reads the raw coordinate columns.
func buildConfig(requested []pipeline.Step) (*pipeline.Config, error) {
	options := map[string]string{}
	if *latCol != "" {
		options["lat_col"] = *latCol
	}
	if *lonCol != "" {
		options["lon_col"] = *lonCol
	}
	if *timeCol != "" {
		options["time_col"] = *timeCol
	}
	if *speedCol != "" {
		options["speed_col"] = *speedCol
	}
	smoothRequested := false
	for _, step := range requested {
		if step == pipeline.StepSmooth {
			smoothRequested = true
		}
	}
	if smoothRequested && *smoothingMethod != "" {
		options["smoothing_method"] = *smoothingMethod
	}
	if *minDistance != 0 {
		options["min_distance"] = fmt.Sprintf("%g", *minDistance)
	}
	if *utmZone != 0 {
		options["utm_zone"] = fmt.Sprintf("%d", *utmZone)
	}
	return pipeline.ParseOptions(options)
}

func parseSteps(s string) ([]pipeline.Step, error) {
	var out []pipeline.Step
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		step := pipeline.Step(part)
		switch step {
		case pipeline.StepSmooth, pipeline.StepProject, pipeline.StepResample,
			pipeline.StepDt, pipeline.StepKinematics:
			out = append(out, step)
		default:
			return nil, fmt.Errorf("unknown step %q", part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no pipeline steps selected")
	}
	return out, nil
}

// stepSuffixes names the output file after the stages that produced it,
// matching the suffix convention of the reference logs.
func stepSuffixes(requested []pipeline.Step) []string {
	var suffixes []string
	for _, step := range requested {
		switch step {
		case pipeline.StepSmooth:
			suffixes = append(suffixes, "smoothed")
		case pipeline.StepProject:
			suffixes = append(suffixes, "planar")
		case pipeline.StepResample:
			suffixes = append(suffixes, "resampled")
		case pipeline.StepDt:
			suffixes = append(suffixes, "dt")
		case pipeline.StepKinematics:
			suffixes = append(suffixes, "heading")
		}
	}
	return suffixes
}

// serve blocks until interrupted, serving the run store.
func serve(store *db.DB) {
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		store.AttachAdminRoutes(mux)

		srvMux := NewServer(store).ServeMux()
		mux.Handle("/", srvMux)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
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
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

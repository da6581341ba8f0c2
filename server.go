package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/pipeline"
	"github.com/banshee-data/trajectory.report/internal/visualize"
)

// Server exposes recorded runs over HTTP: a JSON listing plus a rendered
// chart page per run.
type Server struct {
	db *db.DB
}

func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/runs", s.listRuns)
	mux.HandleFunc("/runs/", s.runChart)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the Trajectory Report Server!"))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := s.db.ListRuns(100)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}

	type runJSON struct {
		ID              string `json:"id"`
		Source          string `json:"source"`
		Day             string `json:"day,omitempty"`
		SmoothingMethod string `json:"smoothing_method,omitempty"`
		InputRows       int    `json:"input_rows"`
		OutputRows      int    `json:"output_rows"`
		CreatedAt       string `json:"created_at"`
	}
	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runJSON{
			ID:              run.ID,
			Source:          run.Source,
			Day:             run.Day,
			SmoothingMethod: run.SmoothingMethod,
			InputRows:       run.InputRows,
			OutputRows:      run.OutputRows,
			CreatedAt:       run.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, "Failed to encode runs", http.StatusInternalServerError)
	}
}

// runChart serves /runs/{id}/chart as an HTML chart page over the stored
// samples.
func (s *Server) runChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || (sub != "chart" && sub != "") {
		http.NotFound(w, r)
		return
	}

	run, err := s.db.GetRun(id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load run: %v", err), http.StatusNotFound)
		return
	}

	if sub == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":     run.ID,
			"source": run.Source,
			"params": run.Params,
		})
		return
	}

	tr, err := s.db.LoadRunSamples(id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load samples: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = visualize.RenderPage(w, tr, visualize.PageOptions{
		XCol:       "x",
		YCol:       "y",
		SpeedCol:   db.SpeedSampleCol,
		YawRateCol: pipeline.YawRateCol,
		Title:      fmt.Sprintf("%s %s", run.Source, run.Day),
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to render chart: %v", err), http.StatusInternalServerError)
	}
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/connplot/connplot/pkg/cache"
	apperrors "github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/pipeline"
)

// serveShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
const serveShutdownTimeout = 5 * time.Second

// newServeCmd creates the serve command, an HTTP preview server that
// renders figures from the network files in a directory on demand.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve figures from a directory of network files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runServe(cmd.Context(), addr, dir)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(ctx context.Context, addr, dir string) error {
	logger := loggerFromContext(ctx)

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("serve expects a directory of network files")
	}

	c := cache.NewMemoryCache()
	defer c.Close()

	h := &figureHandler{
		dir:    dir,
		runner: pipeline.NewRunner(c, nil, logger),
		logger: logger,
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Serving figures from %s on %s", dir, addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// figureHandler renders network files below its directory. All artifacts
// go through the runner's cache, so repeated requests with the same
// options are served from memory.
type figureHandler struct {
	dir    string
	runner *pipeline.Runner
	logger *log.Logger
}

func (h *figureHandler) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealth)
	r.Get("/figures", h.handleList)
	r.Get("/figure/{name}", h.handleFigure)
	return r
}

func (h *figureHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// handleList returns the network description files available for rendering.
func (h *figureHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".toml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"figures": names})
}

// handleFigure renders one network file with options taken from query
// parameters: format, by-layer, by-synapse, select, intensity, global,
// limits, symmetric, pixels-per-mm, labels, refresh.
func (h *figureHandler) handleFigure(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || name == "." || name == ".." {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid figure name"))
		return
	}

	opts, err := figureOptions(filepath.Join(h.dir, name), r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.runner.Execute(r.Context(), opts)
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsSchema(err) || apperrors.IsConfig(err) {
			status = http.StatusBadRequest
		}
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		h.writeError(w, status, err)
		return
	}

	format := opts.Formats[0]
	w.Header().Set("Content-Type", contentType(format))
	if result.CacheInfo.ArtifactHits[format] {
		w.Header().Set("X-Cache", "HIT")
	}
	_, _ = w.Write(result.Artifacts[format])
}

func (h *figureHandler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// figureOptions converts query parameters into pipeline options.
func figureOptions(path string, q map[string][]string) (pipeline.Options, error) {
	get := func(key string) string {
		if vs := q[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	isSet := func(key string) bool {
		v := get(key)
		return v == "1" || v == "true"
	}

	format := get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}

	opts := pipeline.Options{
		Path:              path,
		AggregateGroups:   isSet("by-layer"),
		AggregateSynapses: isSet("by-synapse"),
		Synapses:          parseList(get("select")),
		Intensity:         get("intensity"),
		Global:            isSet("global"),
		Symmetric:         isSet("symmetric"),
		Formats:           []string{format},
		NoLabels:          get("labels") == "false" || get("labels") == "0",
		Refresh:           isSet("refresh"),
	}

	if s := get("limits"); s != "" {
		limits, err := parseLimits(s)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Limits = limits
	}
	if s := get("pixels-per-mm"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.PixelsPerMM = v
	}
	return opts, nil
}

// contentType maps an output format to its MIME type.
func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatJSON:
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

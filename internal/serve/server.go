package serve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"kiln/internal/build"
	"kiln/internal/domain/config"
	"kiln/internal/index"
	"kiln/internal/logfields"
	"kiln/internal/metrics"
)

const (
	eventsPath  = "/__kiln/events"
	metricsPath = "/metrics"
	debounce    = 200 * time.Millisecond
)

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Server rebuilds the site into the public directory whenever content or
// theme files change and serves the result with live reload.
type Server struct {
	cfg     config.Config
	builder *build.Builder
	metrics *metrics.Recorder
	log     *slog.Logger

	// held for writing while a build owns the index
	mu sync.RWMutex

	sseMu     sync.Mutex
	sseConns  map[chan string]struct{}
	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(cfg config.Config, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.New()
	}
	return &Server{
		cfg: cfg,
		builder: &build.Builder{
			Cfg:        cfg,
			Logger:     log,
			Metrics:    rec,
			LiveReload: true,
		},
		metrics:  rec,
		log:      log.With(logfields.Stage("serve")),
		sseConns: make(map[chan string]struct{}),
	}
}

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(eventsPath, s.handleSSE)
	mux.Handle(metricsPath, s.metrics.Handler())
	mux.HandleFunc("/", s.handleSite)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Rebuild(ctx); err != nil {
		return err
	}
	if err := s.startWatch(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", logfields.URL("http://"+displayHost(addr)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Rebuild runs a build and tells connected browsers to reload.
func (s *Server) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	res, err := s.builder.Run(ctx)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	s.log.Info("rebuild complete", logfields.BuildID(res.BuildID),
		slog.Int("written", res.Written), slog.Int("removed", res.Removed))
	s.broadcastSSE("reload")
	return nil
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		for _, root := range s.watchRoots() {
			if e := s.watchTree(root); e != nil {
				err = e
				return
			}
		}
		go s.watchLoop(ctx)
	})
	return err
}

func (s *Server) watchRoots() []string {
	roots := []string{s.cfg.Build.ContentDir}
	theme := filepath.Join(s.cfg.Build.ThemeDir, s.cfg.Site.Theme)
	if info, err := os.Stat(theme); err == nil && info.IsDir() {
		roots = append(roots, theme)
	}
	return roots
}

func (s *Server) watchTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return s.watcher.Add(p)
		}
		return nil
	})
}

func (s *Server) watchLoop(ctx context.Context) {
	s.log.Info("watching for changes", slog.Any("roots", s.watchRoots()))
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	trigger := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := s.watchTree(ev.Name); err != nil {
						s.log.Warn("watch directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.log.Debug("change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
				trigger()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", logfields.Error(err))
		case <-timer.C:
			buildCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if err := s.Rebuild(buildCtx); err != nil {
				s.log.Error("rebuild failed", logfields.Error(err))
			}
			cancel()
		}
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 8)

	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		close(ch)
		s.sseMu.Unlock()
	}()
	fmt.Fprintf(w, "data: %s\n\n", "hello")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}

// handleSite serves the public directory. Paths with no output fall back to
// the alias table of the index, then to the 404 page.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	public := s.cfg.Build.PublicDir
	urlPath := path.Clean("/" + r.URL.Path)
	if exists(public, urlPath) {
		http.FileServer(http.Dir(public)).ServeHTTP(w, r)
		return
	}

	if target, ok := s.resolveAlias(urlPath); ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	s.handleNotFound(w, r)
}

func (s *Server) resolveAlias(urlPath string) (string, bool) {
	st, err := index.Open(index.OpenOptions{Path: s.cfg.Build.IndexPath, ReadOnly: true})
	if err != nil {
		s.log.Warn("open index", logfields.Error(err))
		return "", false
	}
	defer st.Close()

	target, err := st.ResolveAlias(urlPath)
	if err != nil {
		if !errors.Is(err, index.ErrNotFound) {
			s.log.Warn("resolve alias", logfields.URL(urlPath), logfields.Error(err))
		}
		return "", false
	}
	return target, true
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.cfg.Build.PublicDir, "404.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(data)
}

// exists reports whether urlPath maps to a file of the public directory,
// either directly or through the index.html of a directory.
func exists(public, urlPath string) bool {
	full := filepath.Join(public, filepath.FromSlash(urlPath))
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	info, err = os.Stat(filepath.Join(full, "index.html"))
	return err == nil && !info.IsDir()
}

func displayHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

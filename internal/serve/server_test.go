package serve

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiln/internal/domain/config"
)

func newTestServer(t *testing.T) (*Server, config.Config) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"content/_index.md": "+++\ntitle = \"Home\"\n+++\n",
		"content/post.md":   "+++\ntitle = \"Post\"\naliases = [\"/old-post/\"]\n+++\nhello\n",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	cfg := config.Default()
	cfg.Site.BaseURL = "http://localhost:8080"
	cfg.Build.ContentDir = filepath.Join(root, "content")
	cfg.Build.PublicDir = filepath.Join(root, "public")
	cfg.Build.ThemeDir = filepath.Join(root, "themes")
	cfg.Build.IndexPath = filepath.Join(root, "index.db")
	cfg.Resolve()

	s := New(cfg, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, s.Rebuild(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s, cfg
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func TestServesBuiltPagesWithLiveReload(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/post/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<h1>Post</h1>")
	assert.Contains(t, string(body), eventsPath)
}

func TestNotFoundServes404Page(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/nope/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Not found")
}

func TestAliasFallsBackToIndex(t *testing.T) {
	s, cfg := newTestServer(t)
	// without the redirect file only the index knows the alias
	require.NoError(t, os.RemoveAll(filepath.Join(cfg.Build.PublicDir, "old-post")))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	client := &http.Client{CheckRedirect: noRedirect}

	resp, err := client.Get(ts.URL + "/old-post/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://localhost:8080/post/", resp.Header.Get("Location"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + metricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "kiln_builds_total 1")
	assert.Contains(t, string(body), "kiln_last_build_pages 1")
}

func TestSSEBroadcastsReload(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+eventsPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	line, err := lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: hello\n", line)
	_, err = lines.ReadString('\n')
	require.NoError(t, err)

	s.broadcastSSE("reload")
	line, err = lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: reload\n", line)
}

func TestRebuildPicksUpChanges(t *testing.T) {
	s, cfg := newTestServer(t)
	post := filepath.Join(cfg.Build.ContentDir, "post.md")
	require.NoError(t, os.WriteFile(post, []byte("+++\ntitle = \"Edited\"\n+++\n"), 0o644))
	require.NoError(t, s.Rebuild(context.Background()))

	data, err := os.ReadFile(filepath.Join(cfg.Build.PublicDir, "post", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Edited</h1>")
	assert.NoDirExists(t, filepath.Join(cfg.Build.PublicDir, "old-post"))
}

func TestDisplayHost(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayHost(":8080"))
	assert.Equal(t, "0.0.0.0:1313", displayHost("0.0.0.0:1313"))
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()
	r.BuildFinished(200*time.Millisecond, nil)
	r.BuildFinished(time.Second, errors.New("boom"))
	r.Outputs(3, 2, 1)
	r.Pages(7)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{
		"kiln_builds_total 2",
		"kiln_builds_failed_total 1",
		"kiln_build_duration_seconds_count 1",
		`kiln_outputs_total{result="written"} 3`,
		`kiln_outputs_total{result="skipped"} 2`,
		`kiln_outputs_total{result="removed"} 1`,
		"kiln_last_build_pages 7",
	} {
		assert.True(t, strings.Contains(body, want), want)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.BuildFinished(time.Second, nil)
		r.Outputs(1, 1, 1)
		r.Pages(1)
	})
}

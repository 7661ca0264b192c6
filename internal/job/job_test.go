package job

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeload/resumeload/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "s.db"), filepath.Join(dir, "s.lock"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func singleChunkServer(body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
			w.Header().Set("Accept-Ranges", "bytes")
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			w.Header().Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", len(body)-1, len(body)))
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write(body)
		}
	}))
}

func TestNewRejectsMismatchedLengths(t *testing.T) {
	st := openTestStore(t)
	_, err := New([]string{"a", "b"}, []string{"only-one"}, t.TempDir(), st)
	require.Error(t, err)
}

func TestNewRejectsEmpty(t *testing.T) {
	st := openTestStore(t)
	_, err := New(nil, nil, t.TempDir(), st)
	require.Error(t, err)
}

func TestJobAggregatesProgressAndCompletion(t *testing.T) {
	srv1 := singleChunkServer([]byte{1, 2, 3, 4})
	defer srv1.Close()
	srv2 := singleChunkServer([]byte{5, 6, 7, 8, 9, 10})
	defer srv2.Close()

	st := openTestStore(t)
	outDir := t.TempDir()

	j, err := New([]string{srv1.URL, srv2.URL}, []string{"a.bin", "b.bin"}, outDir, st)
	require.NoError(t, err)

	var finished bool
	var lastJobTotal int64
	j.Events.On(EventComplete, func(any) { finished = true })
	j.Events.On(EventProgress, func(p any) { lastJobTotal = p.(ProgressPayload).JobTotal })

	for _, tk := range j.Tasks {
		tk.Start()
	}

	require.Eventually(t, func() bool { return j.Finished() }, 3*time.Second, 10*time.Millisecond)
	assert.True(t, finished)
	assert.Equal(t, 2, j.Completed())
	assert.Equal(t, 0, j.Errored())
	assert.EqualValues(t, 10, lastJobTotal)

	data, err := os.ReadFile(filepath.Join(outDir, "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestJobCountsErrors(t *testing.T) {
	okSrv := singleChunkServer([]byte{1, 2})
	defer okSrv.Close()
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer badSrv.Close()

	st := openTestStore(t)
	j, err := New([]string{okSrv.URL, badSrv.URL}, []string{"ok.bin", "bad.bin"}, t.TempDir(), st)
	require.NoError(t, err)

	for _, tk := range j.Tasks {
		tk.Start()
	}

	require.Eventually(t, func() bool { return j.Finished() }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, j.Completed())
	assert.Equal(t, 1, j.Errored())
}

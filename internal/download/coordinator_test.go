package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/averden/modelget/internal/config"
	"github.com/averden/modelget/internal/fetch"
	"github.com/averden/modelget/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact(t *testing.T, baseURL string, parts int) config.Artifact {
	t.Helper()
	return config.Artifact{
		BaseURL:    baseURL,
		FileName:   "model.gguf",
		PartPrefix: "model.part",
		PartCount:  parts,
		DataDir:    t.TempDir(),
	}
}

// partServer serves parts at /model.partNN and counts every request.
func partServer(t *testing.T, parts map[string][]byte, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := parts[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
}

func httpFetcher() *fetch.Fetcher {
	policy := fetch.Policy{
		Attempts: 3,
		Backoff:  fetch.LinearBackoff(time.Millisecond),
	}
	return fetch.NewFetcher(fetch.NewHTTPSource(fetch.NewClient(fetch.ClientConfig{})), policy)
}

// panicFetcher fails the test if any network fetch happens.
type panicFetcher struct{ t *testing.T }

func (p *panicFetcher) Fetch(ctx context.Context, url, digest string) ([]byte, error) {
	p.t.Fatalf("unexpected network fetch for %s", url)
	return nil, nil
}

func TestEnsureAvailableFullSession(t *testing.T) {
	var hits atomic.Int32
	parts := map[string][]byte{
		"/model.part01": []byte("first-"),
		"/model.part02": []byte("second-"),
		"/model.part03": []byte("third"),
	}
	srv := partServer(t, parts, &hits)
	defer srv.Close()

	art := testArtifact(t, srv.URL, 3)
	st, err := store.New(art)
	require.NoError(t, err)
	coord := New(art, st, httpFetcher())

	path, err := coord.EnsureAvailable(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("first-second-third"), got)
	assert.Equal(t, int32(3), hits.Load())

	snap := coord.Progress()
	assert.Equal(t, PhaseComplete, snap.Phase)
	assert.Equal(t, 1.0, snap.Fraction)
	assert.Equal(t, 3, snap.Completed)
}

func TestEnsureAvailableResumesFromCachedParts(t *testing.T) {
	var hits atomic.Int32
	parts := map[string][]byte{
		"/model.part02": []byte("fetched-2"),
	}
	srv := partServer(t, parts, &hits)
	defer srv.Close()

	art := testArtifact(t, srv.URL, 2)
	st, err := store.New(art)
	require.NoError(t, err)
	require.NoError(t, st.Write(0, []byte("cached-1")))

	coord := New(art, st, httpFetcher())
	path, err := coord.EnsureAvailable(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached-1fetched-2"), got)
	// Exactly one request: the cached part was never re-fetched.
	assert.Equal(t, int32(1), hits.Load())
}

func TestEnsureAvailableShortCircuitsWhenAssembled(t *testing.T) {
	art := testArtifact(t, "https://models.example.com/gguf", 3)
	st, err := store.New(art)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.FinalPath(), []byte("assembled model"), 0644))

	coord := New(art, st, &panicFetcher{t: t})
	path, err := coord.EnsureAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, st.FinalPath(), path)
	assert.Equal(t, PhaseComplete, coord.Progress().Phase)
}

func TestEnsureAvailableSurfacesTerminalFailure(t *testing.T) {
	var hits atomic.Int32
	srv := partServer(t, map[string][]byte{"/model.part01": []byte("only one")}, &hits)
	defer srv.Close()

	art := testArtifact(t, srv.URL, 2)
	st, err := store.New(art)
	require.NoError(t, err)

	coord := New(art, st, httpFetcher())
	_, err = coord.EnsureAvailable(context.Background())
	require.Error(t, err)

	snap := coord.Progress()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Contains(t, snap.Status, "failed")
	// No final artifact after a failed session.
	_, statErr := os.Stat(st.FinalPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestFailedSessionResumesOnRetry(t *testing.T) {
	var hits atomic.Int32
	parts := map[string][]byte{
		"/model.part01": []byte("one-"),
	}
	srv := partServer(t, parts, &hits)
	defer srv.Close()

	art := testArtifact(t, srv.URL, 2)
	st, err := store.New(art)
	require.NoError(t, err)

	coord := New(art, st, httpFetcher())
	_, err = coord.EnsureAvailable(context.Background())
	require.Error(t, err)

	// The server learns about part 2; a manual retry finishes the job from
	// whatever the failed session left on disk.
	parts["/model.part02"] = []byte("two")
	path, err := coord.EnsureAvailable(context.Background())
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("one-two"), got)
}

func TestAvailable(t *testing.T) {
	art := testArtifact(t, "https://models.example.com/gguf", 1)
	st, err := store.New(art)
	require.NoError(t, err)
	coord := New(art, st, &panicFetcher{t: t})

	_, ok := coord.Available()
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(st.FinalPath(), []byte("m"), 0644))
	path, ok := coord.Available()
	assert.True(t, ok)
	assert.Equal(t, st.FinalPath(), path)
}

func TestCancelStopsSession(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	art := testArtifact(t, srv.URL, 5)
	st, err := store.New(art)
	require.NoError(t, err)
	coord := New(art, st, httpFetcher())

	done := make(chan error, 1)
	go func() {
		_, err := coord.EnsureAvailable(context.Background())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	coord.Cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop after cancel")
	}
}

func TestEventsDeliverSnapshots(t *testing.T) {
	var hits atomic.Int32
	parts := map[string][]byte{"/model.part01": []byte("solo")}
	srv := partServer(t, parts, &hits)
	defer srv.Close()

	art := testArtifact(t, srv.URL, 1)
	st, err := store.New(art)
	require.NoError(t, err)
	coord := New(art, st, httpFetcher())

	_, err = coord.EnsureAvailable(context.Background())
	require.NoError(t, err)

	var phases []Phase
	for {
		select {
		case snap := <-coord.Events():
			phases = append(phases, snap.Phase)
			continue
		default:
		}
		break
	}
	require.NotEmpty(t, phases)
	assert.Equal(t, PhaseComplete, phases[len(phases)-1])
}

func TestStatusStringsReflectPhases(t *testing.T) {
	var hits atomic.Int32
	parts := map[string][]byte{
		"/model.part01": []byte("a"),
		"/model.part02": []byte("b"),
	}
	srv := partServer(t, parts, &hits)
	defer srv.Close()

	art := testArtifact(t, srv.URL, 2)
	st, err := store.New(art)
	require.NoError(t, err)
	coord := New(art, st, httpFetcher())

	seen := make(map[Phase]string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range coord.Events() {
			seen[snap.Phase] = snap.Status
			if snap.Phase == PhaseComplete {
				return
			}
		}
	}()
	_, err = coord.EnsureAvailable(context.Background())
	require.NoError(t, err)
	<-done

	assert.Equal(t, "checking existing parts", seen[PhaseChecking])
	assert.Contains(t, seen[PhaseDownloading], "downloading")
	assert.Equal(t, "complete", seen[PhaseComplete])
}

package jsonplot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func startTestGallery(t *testing.T, root string) (*Gallery, *httptest.Server) {
	t.Helper()
	g := NewGallery("127.0.0.1:0", root, 10)
	srv := httptest.NewServer(g.Handler())
	t.Cleanup(srv.Close)
	return g, srv
}

func dialGallery(t *testing.T, ctx context.Context, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func readEvent(t *testing.T, ctx context.Context, c *websocket.Conn) ImageEvent {
	t.Helper()
	var event ImageEvent
	require.NoError(t, wsjson.Read(ctx, c, &event))
	return event
}

func TestGalleryDisplay(t *testing.T) {
	t.Run("LiveEvent", func(t *testing.T) {
		root := t.TempDir()
		g, srv := startTestGallery(t, root)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c := dialGallery(t, ctx, srv.URL)

		path := filepath.Join(root, "hist_x.png")
		require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0o644))
		require.NoError(t, g.Display(path))

		event := readEvent(t, ctx, c)
		assert.Equal(t, "hist_x.png", event.Name)
		assert.Equal(t, path, event.Path)
		assert.Equal(t, "/images/hist_x.png", event.URL)

		resp, err := http.Get(srv.URL + event.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "png bytes", string(body))
	})

	t.Run("BacklogIsReplayedInOrder", func(t *testing.T) {
		root := t.TempDir()
		g, srv := startTestGallery(t, root)

		require.NoError(t, g.Display(filepath.Join(root, "a.png")))
		require.NoError(t, g.Display(filepath.Join(root, "sub", "b.png")))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c := dialGallery(t, ctx, srv.URL)

		assert.Equal(t, "/images/a.png", readEvent(t, ctx, c).URL)
		assert.Equal(t, "/images/sub/b.png", readEvent(t, ctx, c).URL)
	})

	t.Run("OutsideRoot", func(t *testing.T) {
		root := t.TempDir()
		g, _ := startTestGallery(t, root)

		err := g.Display(filepath.Join(filepath.Dir(root), "elsewhere.png"))
		assert.Error(t, err)
		assert.Empty(t, g.broadcaster.Backlog())
	})

	t.Run("FromPlotSession", func(t *testing.T) {
		outDir := t.TempDir()
		g, srv := startTestGallery(t, outDir)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c := dialGallery(t, ctx, srv.URL)

		session, err := NewPlotSession(writeJSON(t, xyTable), WithOutputDirectory(outDir), WithDisplayer(g))
		require.NoError(t, err)

		path, err := session.PairPlot(Named("scatter"), "x", "y", true, nil)
		require.NoError(t, err)

		event := readEvent(t, ctx, c)
		assert.Equal(t, path, event.Path)
		assert.Equal(t, "/images/scatter_x_y.png", event.URL)
	})
}

func TestGalleryClientDisconnect(t *testing.T) {
	root := t.TempDir()
	g, srv := startTestGallery(t, root)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return g.broadcaster.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	c.Close(websocket.StatusNormalClosure, "")
	require.NoError(t, g.Display(filepath.Join(root, "after.png")))

	assert.Eventually(t, func() bool { return g.broadcaster.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestGalleryImagesJSON(t *testing.T) {
	root := t.TempDir()
	g, srv := startTestGallery(t, root)
	require.NoError(t, g.Display(filepath.Join(root, "a.png")))

	resp, err := http.Get(srv.URL + "/images.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var metadata GalleryMetadata
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&metadata))
	assert.Equal(t, "jsonplot", metadata.Title)
	require.Len(t, metadata.Images, 1)
	assert.Equal(t, "a.png", metadata.Images[0].Name)
}

func TestGalleryIndex(t *testing.T) {
	_, srv := startTestGallery(t, t.TempDir())

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	notFound, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestGalleryRun(t *testing.T) {
	g := NewGallery("127.0.0.1:0", t.TempDir(), 0)
	assert.Equal(t, DefaultGalleryBacklog, g.backlog)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- g.Run(ctx) }()

	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("gallery did not stop after cancel")
	}
}

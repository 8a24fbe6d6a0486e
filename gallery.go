package jsonplot

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	DefaultGalleryBacklog = 100

	// Per-client buffer for live events on top of the replayed backlog.
	galleryClientBuffer = 64
)

// Gallery is a Displayer that shows images in a browser instead of a desktop
// viewer. It serves the files under root and pushes every displayed image to
// connected pages over a websocket.
//
//   - /             index page
//   - /images/...   the image files
//   - /images.json  GalleryMetadata with the recent images
//   - /ws           ImageEvent stream, starting with the recent images
type Gallery struct {
	addr    string
	root    string
	title   string
	backlog int

	broadcaster *imageBroadcaster
	mux         *http.ServeMux
	logger      logrus.FieldLogger
}

// NewGallery creates a gallery serving root on addr. backlog is the number of
// recent images replayed to newly connected pages.
func NewGallery(addr, root string, backlog int) *Gallery {
	if backlog < 1 {
		backlog = DefaultGalleryBacklog
	}

	g := &Gallery{
		addr:        addr,
		root:        root,
		title:       "jsonplot",
		backlog:     backlog,
		broadcaster: newImageBroadcaster(backlog),
		mux:         http.NewServeMux(),
		logger:      logrus.WithField("tag", "Gallery"),
	}

	g.mux.HandleFunc("/", g.handleIndex)
	g.mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(root))))
	g.mux.HandleFunc("/images.json", g.handleImages)
	g.mux.HandleFunc("/ws", g.handleWebSocket)

	return g
}

// Display publishes path to the connected pages. path must be inside root.
func (g *Gallery) Display(path string) error {
	absRoot, err := filepath.Abs(g.root)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("%s is outside of the gallery root %s", path, g.root)
	}

	event := ImageEvent{
		Name: filepath.Base(path),
		Path: path,
		URL:  (&url.URL{Path: "/images/" + filepath.ToSlash(rel)}).String(),
		Time: time.Now(),
	}

	g.broadcaster.Publish(context.Background(), event)
	return nil
}

func (g *Gallery) Handler() http.Handler {
	return g.mux
}

// Run serves the gallery until ctx is canceled.
func (g *Gallery) Run(ctx context.Context) error {
	srv := &http.Server{Addr: g.addr, Handler: g.mux}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		case <-done:
		}
	}()

	g.logger.Infof("starting gallery at http://%s", g.addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (g *Gallery) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		g.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	// Pages never send anything, we only write.
	ctx := c.CloseRead(req.Context())

	channel := make(chan ImageEvent, g.backlog+galleryClientBuffer)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case event := <-channel:
				if err := wsjson.Write(ctx, c, event); err != nil {
					g.logger.WithError(err).Debug("websocket write failed")
					c.Close(websocket.StatusInternalError, "write failed")
					return
				}
			case <-ctx.Done():
				g.logger.Debug("client closed connection or context canceled")
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}()

	g.broadcaster.Register(ctx, channel)

	wg.Wait()
	g.broadcaster.Deregister(ctx, channel)
	close(channel)
}

func (g *Gallery) handleImages(w http.ResponseWriter, req *http.Request) {
	metadata := GalleryMetadata{
		Title:  g.title,
		Images: g.broadcaster.Backlog(),
	}

	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		g.logger.WithError(err).Warn("failed to encode gallery metadata")
	}
}

func (g *Gallery) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}

	w.Header().Add("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, g.title); err != nil {
		g.logger.WithError(err).Warn("failed to render gallery index")
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.}}</title>
<style>
body { font-family: sans-serif; margin: 1em; }
figure { display: inline-block; margin: 0.5em; }
img { max-width: 640px; border: 1px solid #ddd; }
</style>
</head>
<body>
<h1>{{.}}</h1>
<div id="images"></div>
<script>
const images = document.getElementById("images");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (msg) => {
  const event = JSON.parse(msg.data);
  const figure = document.createElement("figure");
  const img = document.createElement("img");
  img.src = event.URL + "?t=" + Date.parse(event.Time);
  const caption = document.createElement("figcaption");
  caption.textContent = event.Name;
  figure.append(img, caption);
  images.prepend(figure);
};
</script>
</body>
</html>
`))

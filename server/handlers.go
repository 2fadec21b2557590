package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/ggass"
	"github.com/gogpu/ggass/composite"
	"github.com/gogpu/ggass/config"
)

var errBadQuery = errors.New("bad query parameter")

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/render", s.handleRender)
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("PUT /v1/sessions/{id}/track", s.handleSetTrack)
	mux.HandleFunc("PUT /v1/sessions/{id}/size", s.handleSetSize)
	mux.HandleFunc("GET /v1/sessions/{id}/frame", s.handleFrame)
	mux.HandleFunc("GET /v1/sessions/{id}/sprites", s.handleSprites)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

type healthResponse struct {
	OK   bool   `json:"ok"`
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type sessionResponse struct {
	ID      string `json:"id"`
	Backend string `json:"backend"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type spriteJSON struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	W      int32  `json:"w"`
	H      int32  `json:"h"`
	Stride int32  `json:"stride"`
	Color  uint32 `json:"color"`
	Offset uint32 `json:"offset"`
}

type spritesResponse struct {
	Time    int64        `json:"t"`
	Sprites []spriteJSON `json:"sprites"`
	// Bitmaps is base64 in JSON.
	Bitmaps []byte `json:"bitmaps"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{OK: true, Name: s.name})
}

// handleRender renders the posted track once, on a throwaway engine.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseFrameQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	width, err := queryInt(r, "w", s.cfg.Render.Width)
	if err != nil {
		s.writeError(w, err)
		return
	}
	height, err := queryInt(r, "h", s.cfg.Render.Height)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.cfg.Render.CheckFrameSize(width, height); err != nil {
		s.writeError(w, err)
		return
	}
	track, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	e, err := ggass.Create(s.cfg.EngineOptions()...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer e.Destroy()

	if err := e.SetFrameSize(width, height); err != nil {
		s.writeError(w, err)
		return
	}
	if err := e.SetTrack(track); err != nil {
		s.writeError(w, err)
		return
	}

	var f ggass.Frame
	if err := s.render(e, q.t, &f); err != nil {
		s.writeError(w, err)
		return
	}
	defer ggass.FreeFrame(&f)
	s.writeImage(w, &f, width, height, q.format)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "w", s.cfg.Render.Width)
	if err != nil {
		s.writeError(w, err)
		return
	}
	height, err := queryInt(r, "h", s.cfg.Render.Height)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.cfg.Render.CheckFrameSize(width, height); err != nil {
		s.writeError(w, err)
		return
	}
	track, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.sessions.create(s.cfg.EngineOptions()...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	fail := func(err error) {
		_ = s.sessions.remove(sess.id)
		s.writeError(w, err)
	}
	if err := sess.engine.SetFrameSize(width, height); err != nil {
		fail(err)
		return
	}
	if len(track) > 0 {
		if err := sess.engine.SetTrack(track); err != nil {
			fail(err)
			return
		}
	}

	s.log.Debug("ggass: session created", "id", sess.id, "backend", sess.engine.Backend())
	w.Header().Set("Location", "/v1/sessions/"+sess.id)
	s.writeJSON(w, http.StatusCreated, sessionResponse{
		ID:      sess.id,
		Backend: sess.engine.Backend(),
		Width:   width,
		Height:  height,
	})
}

func (s *Server) handleSetTrack(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	track, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.setTrack(track); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSize(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req sizeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadQuery, err))
		return
	}
	if err := s.cfg.Render.CheckFrameSize(req.Width, req.Height); err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.setFrameSize(req.Width, req.Height); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	q, err := s.parseFrameQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var f ggass.Frame
	version, err := sess.render(s, q.t, &f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer ggass.FreeFrame(&f)

	etag := fmt.Sprintf(`"%d-%s"`, version, q.format)
	w.Header().Set("ETag", etag)
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	width, height := sess.engine.FrameSize()
	s.writeImage(w, &f, width, height, q.format)
}

func (s *Server) handleSprites(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	q, err := s.parseFrameQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var f ggass.Frame
	version, err := sess.render(s, q.t, &f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer ggass.FreeFrame(&f)

	etag := fmt.Sprintf(`"%d-sprites"`, version)
	w.Header().Set("ETag", etag)
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	resp := spritesResponse{
		Time:    q.t,
		Sprites: make([]spriteJSON, len(f.Sprites)),
		Bitmaps: f.Bitmaps,
	}
	for i, sp := range f.Sprites {
		resp.Sprites[i] = spriteJSON(sp)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.remove(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Debug("ggass: session deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

type frameQuery struct {
	t      int64
	format composite.Format
}

func (s *Server) parseFrameQuery(r *http.Request) (frameQuery, error) {
	q := frameQuery{format: s.cfg.Render.Format}
	if v := r.URL.Query().Get("t"); v != "" {
		t, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, fmt.Errorf("%w: t=%q", errBadQuery, v)
		}
		q.t = t
	}
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := composite.ParseFormat(v)
		if err != nil {
			return q, fmt.Errorf("%w: %w", errBadQuery, err)
		}
		q.format = f
	}
	return q, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadQuery, key, v)
	}
	return n, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxTrackBytes))
	if err != nil {
		return nil, fmt.Errorf("unable to read the request body: %w", err)
	}
	return b, nil
}

// render runs RenderAt and records metrics.
func (s *Server) render(e *ggass.Engine, t int64, f *ggass.Frame) error {
	start := time.Now()
	err := e.RenderAt(t, f)
	s.metrics.renderDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		s.metrics.renders.WithLabelValues(resultError).Inc()
	case f.Empty():
		s.metrics.renders.WithLabelValues(resultEmpty).Inc()
	default:
		s.metrics.renders.WithLabelValues(resultOK).Inc()
		s.metrics.sprites.Observe(float64(len(f.Sprites)))
	}
	return err
}

// writeImage composites f onto a width x height canvas and writes it. A
// frame without subtitles is answered with 204.
func (s *Server) writeImage(w http.ResponseWriter, f *ggass.Frame, width, height int, format composite.Format) {
	if f.Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := composite.Encode(&buf, composite.Render(f, width, height), format); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Debug("ggass: writing frame", "err", err)
	}
}

// etagMatch reports whether an If-None-Match header lists etag.
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
		if tag == "*" || tag == etag {
			return true
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("ggass: writing response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("ggass: request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: ggass.Code(err)})
}

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, config.ErrFrameTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadQuery), errors.Is(err, composite.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, ggass.ErrTrackParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ggass.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}

	switch ggass.Code(err) {
	case ggass.CodeNilHandle:
		return http.StatusGone
	case ggass.CodeInvalidArgument, ggass.CodeNegativeTime:
		return http.StatusBadRequest
	case ggass.CodeNoTrack:
		return http.StatusConflict
	case ggass.CodeAllocation:
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}

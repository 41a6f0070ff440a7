package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
)

type (
	CreateSessionResponse struct {
		ID string `json:"id"`
	}

	HistoryResponse struct {
		Len    int `json:"len"`
		Cursor int `json:"cursor"`
	}

	TextResponse struct {
		ID       retouch.TextID         `json:"id"`
		Text     string                 `json:"text"`
		Position retouch.Point          `json:"position"`
		Font     retouch.FontDescriptor `json:"font"`
		Color    retouch.RGBA           `json:"color"`
	}

	SessionResponse struct {
		ID        string                 `json:"id"`
		State     string                 `json:"state"`
		Width     int                    `json:"width"`
		Height    int                    `json:"height"`
		Filter    retouch.FilterKind     `json:"filter"`
		Transform retouch.TransformState `json:"transform"`
		Strokes   int                    `json:"strokes"`
		Texts     []TextResponse         `json:"texts"`
		CanUndo   bool                   `json:"can_undo"`
		CanRedo   bool                   `json:"can_redo"`
		History   HistoryResponse        `json:"history"`
	}

	FilterRequest struct {
		Filter string `json:"filter"`
		// Wait blocks the request until the filter completes.
		Wait bool `json:"wait"`
	}

	FilterResponse struct {
		Token   uint64 `json:"token"`
		Filter  string `json:"filter"`
		Outcome string `json:"outcome"`
	}

	StrokeRequest struct {
		Points []retouch.Point `json:"points"`
		Color  *retouch.RGBA   `json:"color"`
		Width  float64         `json:"width"`
	}

	TextRequest struct {
		Text     string                 `json:"text"`
		Font     retouch.FontDescriptor `json:"font"`
		Color    *retouch.RGBA          `json:"color"`
		Position *retouch.Point         `json:"position"`
	}

	TextUpdateRequest struct {
		Text     *string                 `json:"text"`
		Font     *retouch.FontDescriptor `json:"font"`
		Color    *retouch.RGBA           `json:"color"`
		Position *retouch.Point          `json:"position"`
	}

	TransformRequest struct {
		Scale       *float64       `json:"scale"`
		Rotation    *float64       `json:"rotation"`
		Translation *retouch.Point `json:"translation"`
	}

	ChangedResponse struct {
		Changed bool            `json:"changed"`
		Session SessionResponse `json:"session"`
	}

	RecentResponse struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
	}
)

// session resolves the {id} URL parameter.
func (s *Server) session(r *http.Request) (string, *retouch.Session, error) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	return id, sess, err
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// decodeImage reads an encoded image body, bounded by the upload limit.
func (s *Server) decodeImage(w http.ResponseWriter, r *http.Request) (*retouch.ImageBuffer, error) {
	body := http.MaxBytesReader(w, r.Body, int64(s.cfg.Server.MaxUploadMB)<<20)
	img, _, err := retouch.Decode(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, maxErr
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return img, nil
}

func sessionResponse(id string, sess *retouch.Session) SessionResponse {
	resp := SessionResponse{
		ID:        id,
		State:     sess.State().String(),
		Filter:    sess.Filter(),
		Transform: sess.Transform(),
		Strokes:   len(sess.Strokes()),
		Texts:     []TextResponse{},
		CanUndo:   sess.CanUndo(),
		CanRedo:   sess.CanRedo(),
		History: HistoryResponse{
			Len:    sess.HistoryLen(),
			Cursor: sess.HistoryCursor(),
		},
	}
	if src := sess.Source(); src != nil {
		resp.Width, resp.Height = src.Width(), src.Height()
	}
	for _, t := range sess.Texts() {
		resp.Texts = append(resp.Texts, TextResponse{
			ID:       t.ID,
			Text:     t.Text,
			Position: t.Position,
			Font:     t.Font,
			Color:    t.Color,
		})
	}
	return resp
}

func writePNG(w http.ResponseWriter, r *http.Request, img *retouch.ImageBuffer) {
	data, err := img.PNG()
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	img, err := s.decodeImage(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, _, err := s.sessions.Create(img)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateSessionResponse{ID: id})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, sessionResponse(id, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *Server) handleLoadImage(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	img, err := s.decodeImage(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := sess.LoadImage(img); err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, sessionResponse(id, sess))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	preview := sess.Preview()
	if preview == nil {
		respondError(w, r, retouch.ErrNoImageLoaded)
		return
	}
	writePNG(w, r, preview)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	img, err := sess.ExportFlattened()
	if err != nil {
		respondError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "png":
		writePNG(w, r, img)
	case "jpeg", "jpg":
		quality := 90
		if q := r.URL.Query().Get("quality"); q != "" {
			if quality, err = strconv.Atoi(q); err != nil || quality < 1 || quality > 100 {
				respondError(w, r, fmt.Errorf("%w: quality must be 1-100", errBadRequest))
				return
			}
		}
		w.Header().Set("Content-Type", "image/jpeg")
		if err := img.EncodeJPEG(w, quality); err != nil {
			logrus.WithError(err).Error("Failed to encode export")
		}
	default:
		respondError(w, r, fmt.Errorf("%w: unknown format %q", errBadRequest, format))
	}
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req FilterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	kind, err := retouch.ParseFilterKind(req.Filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// The filter outlives the request unless the caller waits for it.
	task, err := sess.ApplyFilter(context.WithoutCancel(r.Context()), kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := FilterResponse{Token: task.Token(), Filter: kind.String(), Outcome: task.Outcome().String()}
	if !req.Wait {
		if task.Outcome() == retouch.FilterPending {
			render.Status(r, http.StatusAccepted)
		}
		render.JSON(w, r, resp)
		return
	}

	outcome, err := task.Wait(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp.Outcome = outcome.String()
	render.JSON(w, r, resp)
}

func (s *Server) handleAddStroke(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req StrokeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	var color retouch.RGBA
	if req.Color != nil {
		color = *req.Color
	}
	changed, err := sess.CommitStroke(req.Points, color, req.Width)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, ChangedResponse{Changed: changed, Session: sessionResponse(id, sess)})
}

func (s *Server) handleClearStrokes(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := sess.ClearStrokes(); err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, sessionResponse(id, sess))
}

func (s *Server) handleAddText(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req TextRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	color := retouch.White
	if req.Color != nil {
		color = *req.Color
	}

	var tid retouch.TextID
	if req.Position != nil {
		tid, err = sess.AddTextAt(req.Text, req.Font, color, *req.Position)
	} else {
		tid, err = sess.AddText(req.Text, req.Font, color)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := sess.Text(tid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, TextResponse{ID: t.ID, Text: t.Text, Position: t.Position, Font: t.Font, Color: t.Color})
}

// textID parses the {tid} URL parameter.
func textID(r *http.Request) (retouch.TextID, error) {
	n, err := strconv.ParseUint(chi.URLParam(r, "tid"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid text id", errBadRequest)
	}
	return retouch.TextID(n), nil
}

func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tid, err := textID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req TextUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u := retouch.TextUpdate{Text: req.Text, Position: req.Position, Font: req.Font, Color: req.Color}
	if err := sess.UpdateText(tid, u); err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, sessionResponse(id, sess))
}

func (s *Server) handleRemoveText(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tid, err := textID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := sess.RemoveText(tid); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req TransformRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	d := retouch.TransformDelta{Scale: req.Scale, Rotation: req.Rotation, Translation: req.Translation}
	if err := sess.SetTransform(d); err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, sessionResponse(id, sess))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	changed := sess.Undo()
	render.JSON(w, r, ChangedResponse{Changed: changed, Session: sessionResponse(id, sess)})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	changed := sess.Redo()
	render.JSON(w, r, ChangedResponse{Changed: changed, Session: sessionResponse(id, sess)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sess.Reset()
	render.JSON(w, r, sessionResponse(id, sess))
}

func (s *Server) handleSaveRecent(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rid, err := sess.SaveRecent(r.Context(), s.recent)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateSessionResponse{ID: rid})
}

func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	type filterInfo struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	}
	var out []filterInfo
	for _, k := range retouch.AllFilterKinds() {
		if s.engine.Supports(k) {
			out = append(out, filterInfo{Name: k.String(), DisplayName: k.DisplayName()})
		}
	}
	render.JSON(w, r, out)
}

func (s *Server) handleListFonts(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.comp.FontFamilies())
}

func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request) {
	edits, err := s.recent.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]RecentResponse, 0, len(edits))
	for _, e := range edits {
		out = append(out, RecentResponse{ID: e.ID, CreatedAt: e.CreatedAt})
	}
	render.JSON(w, r, out)
}

func (s *Server) handleDeleteRecent(w http.ResponseWriter, r *http.Request) {
	if err := s.recent.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func thumbnailOf(e *retouch.RecentEdit) *retouch.ImageBuffer { return e.Thumbnail }
func originalOf(e *retouch.RecentEdit) *retouch.ImageBuffer  { return e.Original }
func editedOf(e *retouch.RecentEdit) *retouch.ImageBuffer    { return e.Edited }

func (s *Server) handleRecentImage(pick func(*retouch.RecentEdit) *retouch.ImageBuffer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.recent.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		img := pick(e)
		if img == nil {
			respondError(w, r, retouch.ErrNilImage)
			return
		}
		writePNG(w, r, img)
	}
}

func (s *Server) handleOpenRecent(w http.ResponseWriter, r *http.Request) {
	e, err := s.recent.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, _, err := s.sessions.Create(e.Edited)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateSessionResponse{ID: id})
}

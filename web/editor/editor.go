// Package editor exposes the post editing sessions over HTTP. Each post has
// at most one session in memory; the routes drive the paste pipeline, the
// toolbar operations, and the exports.
package editor

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/openpress/openpress-stack/model/post"
	"github.com/openpress/openpress-stack/pkg/assets"
)

// Service owns the open edit sessions. Sessions are created lazily on the
// first request for a post and kept until the process stops.
type Service struct {
	mu        sync.Mutex
	sessions  map[string]*post.Session
	pipelines map[string]*post.Pipeline
	uploader  assets.Uploader
	renderer  *post.HTMLRenderer
}

// NewService returns a service using the given uploader for pasted images.
func NewService(uploader assets.Uploader) *Service {
	return &Service{
		sessions:  make(map[string]*post.Session),
		pipelines: make(map[string]*post.Pipeline),
		uploader:  uploader,
		renderer:  post.NewHTMLRenderer(),
	}
}

func (s *Service) open(id string) (*post.Session, *post.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return session, s.pipelines[id], nil
	}
	return nil, nil, echo.NewHTTPError(http.StatusNotFound, "no such post")
}

func (s *Service) create(title string) (*post.Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	doc := &post.Document{DocID: id.String(), Title: title}
	session, err := post.NewSession(doc, nil)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sessions[doc.ID()] = session
	s.pipelines[doc.ID()] = post.NewPipeline(session, s.uploader)
	s.mu.Unlock()
	return session, nil
}

// Shutdown waits for the in-flight uploads of every pipeline.
func (s *Service) Shutdown() {
	s.mu.Lock()
	pipelines := make([]*post.Pipeline, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		pipelines = append(pipelines, p)
	}
	s.mu.Unlock()
	for _, p := range pipelines {
		p.Flush()
	}
}

// CreatePost is the API handler for POST /posts. It creates an empty post
// and opens its edit session.
func (s *Service) CreatePost(c echo.Context) error {
	var body struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	session, err := s.create(body.Title)
	if err != nil {
		return wrapError(err)
	}
	return c.JSON(http.StatusCreated, session.Metadata())
}

// GetPost is the API handler for GET /posts/:id. It returns the post with
// its current content and version.
func (s *Service) GetPost(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session.Metadata())
}

// PutContent is the API handler for PUT /posts/:id/content. It replaces the
// content wholesale with an externally supplied document.
func (s *Service) PutContent(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	var content map[string]interface{}
	if err := c.Bind(&content); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := session.Load(content); err != nil {
		return wrapError(err)
	}
	return c.JSON(http.StatusOK, session.Metadata())
}

// PatchPost is the API handler for PATCH /posts/:id. It applies some engine
// steps on the post document. The If-Match header carries the version the
// steps were built against.
func (s *Service) PatchPost(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	version, err := strconv.ParseInt(c.Request().Header.Get("If-Match"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid If-Match")
	}
	var body struct {
		Steps []map[string]interface{} `json:"steps"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := session.ApplySteps(version, body.Steps); err != nil {
		return wrapError(err)
	}
	return c.JSON(http.StatusOK, session.Metadata())
}

// Paste is the API handler for POST /posts/:id/paste. It runs the paste
// pipeline and falls back to the default handling when the clipboard was not
// consumed.
func (s *Service) Paste(c echo.Context) error {
	session, pipeline, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	var clip post.Clipboard
	if err := c.Bind(&clip); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	// The upload is fire and forget: it must not be canceled when this
	// request ends.
	consumed := pipeline.HandlePaste(context.Background(), clip)
	if !consumed {
		if err := pipeline.PasteFallback(clip); err != nil {
			return wrapError(err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"consumed": consumed,
		"version":  session.Version(),
	})
}

// UploadImage is the API handler for POST /posts/:id/images. It is the
// toolbar file-picker path: the image is uploaded and then inserted at the
// cursor.
func (s *Service) UploadImage(c echo.Context) error {
	session, pipeline, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	header, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	f, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := pipeline.InsertImageFromPicker(c.Request().Context(), data, header.Filename); err != nil {
		return wrapError(err)
	}
	return c.JSON(http.StatusCreated, session.Metadata())
}

// GetSelection is the API handler for GET /posts/:id/selection. It returns
// the toolbar state derived from the block at the cursor.
func (s *Service) GetSelection(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	state, err := session.SelectionState()
	if err != nil {
		return wrapError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// PutCursor is the API handler for PUT /posts/:id/cursor. It moves the
// insertion point to a top-level block index.
func (s *Service) PutCursor(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	var body struct {
		Index int `json:"index"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	session.SetCursor(body.Index)
	return c.NoContent(http.StatusNoContent)
}

// Command is one toolbar action to apply on the selected block.
type Command struct {
	Action string `json:"action"`
	Mark   string `json:"mark,omitempty"`
	Value  string `json:"value,omitempty"`
	Level  int    `json:"level,omitempty"`
	Rows   int    `json:"rows,omitempty"`
	Cols   int    `json:"cols,omitempty"`
}

// Toolbar is the API handler for POST /posts/:id/toolbar. It applies one
// toolbar command and returns the new selection state.
func (s *Service) Toolbar(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	var cmd Command
	if err := c.Bind(&cmd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	switch cmd.Action {
	case "toggleMark":
		err = session.ToggleMark(cmd.Mark)
	case "fontSize":
		err = session.SetFontSize(cmd.Value)
	case "fontFamily":
		err = session.SetFontFamily(cmd.Value)
	case "color":
		err = session.SetColor(cmd.Value)
	case "highlight":
		err = session.SetHighlight(cmd.Value)
	case "heading":
		err = session.SetHeading(cmd.Level)
	case "codeBlock":
		err = session.ToggleCodeBlock()
	case "bulletList":
		err = session.WrapInList(false)
	case "orderedList":
		err = session.WrapInList(true)
	case "table":
		err = session.InsertTable(cmd.Rows, cmd.Cols)
	case "link":
		err = session.InsertLinkOrEmbed(cmd.Value)
	case "adSnippet":
		err = session.InsertAdSnippet(cmd.Value)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action")
	}
	if err != nil {
		return wrapError(err)
	}

	state, err := session.SelectionState()
	if err != nil {
		return wrapError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// GetMarkdown is the API handler for GET /posts/:id/markdown. It exports the
// post content as markdown.
func (s *Service) GetMarkdown(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	md, err := session.Markdown()
	if err != nil {
		return wrapError(err)
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", md)
}

// GetHTML is the API handler for GET /posts/:id/html. It renders the post
// content for publishing.
func (s *Service) GetHTML(c echo.Context) error {
	session, _, err := s.open(c.Param("id"))
	if err != nil {
		return err
	}
	content, err := session.Content()
	if err != nil {
		return wrapError(err)
	}
	html, err := s.renderer.Render(content)
	if err != nil {
		return wrapError(err)
	}
	return c.HTML(http.StatusOK, string(html))
}

// Routes sets the routing for the post editor.
func (s *Service) Routes(router *echo.Group) {
	router.POST("", s.CreatePost)
	router.GET("/:id", s.GetPost)
	router.PUT("/:id/content", s.PutContent)
	router.PATCH("/:id", s.PatchPost)
	router.POST("/:id/paste", s.Paste)
	router.POST("/:id/images", s.UploadImage)
	router.GET("/:id/selection", s.GetSelection)
	router.PUT("/:id/cursor", s.PutCursor)
	router.POST("/:id/toolbar", s.Toolbar)
	router.GET("/:id/markdown", s.GetMarkdown)
	router.GET("/:id/html", s.GetHTML)
}

func wrapError(err error) error {
	switch err {
	case post.ErrInvalidSchema, post.ErrInvalidContent:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case post.ErrNoSteps, post.ErrInvalidSteps, post.ErrInvalidCursor:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case post.ErrCannotApply:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case assets.ErrNotAnImage:
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case assets.ErrUploadFailed:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

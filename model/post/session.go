package post

import (
	"sync"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"

	"github.com/openpress/openpress-stack/pkg/logger"
	"github.com/openpress/openpress-stack/pkg/provider"
)

// OnChange receives the full serialized document after every mutation. The
// snapshot is read-only; the host must not mutate it.
type OnChange func(snapshot map[string]interface{})

// Session owns a post document for the duration of an edit session. All
// mutations are serialized through its lock; the cursor is a top-level
// block index, re-resolved at completion time for asynchronous insertions,
// so an in-flight upload never holds the document.
type Session struct {
	mu       sync.Mutex
	doc      *Document
	cursor   int
	onChange OnChange
	log      logger.Logger

	// dirty is set while the lock is held to request an onChange emission
	// when the lock is released.
	dirty bool
}

// NewSession opens a session on the given document. A document without
// content is seeded with an empty doc that matches the schema constraints.
func NewSession(doc *Document, onChange OnChange) (*Session, error) {
	s := &Session{
		doc:      doc,
		onChange: onChange,
		log:      logger.WithNamespace("post").WithField("post_id", doc.ID()),
	}
	if len(doc.RawContent) == 0 {
		content, err := emptyContent(doc)
		if err != nil {
			return nil, err
		}
		doc.SetContent(content)
	} else if _, err := doc.Content(); err != nil {
		return nil, err
	}
	return s, nil
}

func emptyContent(doc *Document) (*model.Node, error) {
	schema, err := doc.Schema()
	if err != nil {
		return nil, err
	}
	typ, err := schema.NodeType(schema.Spec.TopNode)
	if err != nil {
		return nil, ErrInvalidSchema
	}
	node, err := typ.CreateAndFill()
	if err != nil || node == nil {
		return nil, ErrInvalidSchema
	}
	return node, nil
}

// Metadata returns the post metadata for the host screens. It is taken
// under the lock, so it can be serialized while an upload completes.
func (s *Session) Metadata() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Metadata()
}

// Schema returns the prosemirror schema of the post.
func (s *Session) Schema() (*model.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Schema()
}

// Content returns the current prosemirror content. Nodes are immutable, so
// the returned value stays valid after later mutations.
func (s *Session) Content() (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Content()
}

// Markdown returns a markdown serialization of the current content.
func (s *Session) Markdown() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Markdown()
}

// Snapshot returns the current serialized content.
func (s *Session) Snapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.RawContent
}

// Version returns the current document version.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Version
}

// SetCursor moves the insertion point to the given top-level block index.
// The value is clamped when it is used, since the document may shrink
// before the next insertion.
func (s *Session) SetCursor(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 {
		index = 0
	}
	s.cursor = index
}

// Cursor returns the current insertion point.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Load replaces the content wholesale with an externally supplied value.
func (s *Session) Load(content map[string]interface{}) error {
	s.mu.Lock()
	schema, err := s.doc.Schema()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	node, err := model.NodeFromJSON(schema, content)
	if err != nil {
		s.mu.Unlock()
		return ErrInvalidContent
	}
	s.doc.SetContent(node)
	s.doc.Version++
	s.cursor = 0
	snapshot := s.doc.RawContent
	s.mu.Unlock()

	s.emit(snapshot)
	return nil
}

// InsertEmbed inserts an embed block with the classified attributes at the
// cursor.
func (s *Session) InsertEmbed(attrs *provider.Attrs) error {
	return s.insertBlock("embed", attrs.ToNodeAttrs(), nil)
}

// InsertAdSnippet inserts an adSnippet block at the cursor. The code is
// stored as-is and never executed.
func (s *Session) InsertAdSnippet(code string) error {
	return s.insertBlock("adSnippet", map[string]interface{}{"code": code}, nil)
}

// InsertImage inserts a paragraph holding an inline image at the cursor.
// It is called at upload completion time: the cursor is resolved then, not
// at paste time.
func (s *Session) InsertImage(url, alt string) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	imgType, err := schema.NodeType("image")
	if err != nil {
		return err
	}
	img, err := imgType.CreateAndFill(map[string]interface{}{"src": url, "alt": alt}, nil, nil)
	if err != nil || img == nil {
		return ErrInvalidContent
	}
	paraType, err := schema.NodeType("paragraph")
	if err != nil {
		return err
	}
	para, err := paraType.CreateAndFill(nil, []*model.Node{img}, nil)
	if err != nil || para == nil {
		return ErrInvalidContent
	}
	return s.insertBlockLocked(para)
}

// InsertParagraph inserts a plain text paragraph at the cursor. An empty
// text yields an empty paragraph.
func (s *Session) InsertParagraph(text string) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	var content []*model.Node
	if text != "" {
		content = append(content, schema.Text(text, nil))
	}
	paraType, err := schema.NodeType("paragraph")
	if err != nil {
		return err
	}
	para, err := paraType.CreateAndFill(nil, content, nil)
	if err != nil || para == nil {
		return ErrInvalidContent
	}
	return s.insertBlockLocked(para)
}

// ApplySteps takes some engine steps and tries to apply them. It is an all
// or nothing change: if one step fails, the document is not modified.
func (s *Session) ApplySteps(version int64, rawSteps []map[string]interface{}) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	if len(rawSteps) == 0 {
		return ErrNoSteps
	}
	if version != s.doc.Version {
		return ErrCannotApply
	}
	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	doc, err := s.doc.Content()
	if err != nil {
		return err
	}

	for _, raw := range rawSteps {
		step, err := transform.StepFromJSON(schema, raw)
		if err != nil {
			s.log.Infof("Cannot instantiate a step: %s", err)
			return ErrInvalidSteps
		}
		result := step.Apply(doc)
		if result.Failed != "" {
			s.log.Infof("Cannot apply a step: %s (version=%d)", result.Failed, version)
			return ErrCannotApply
		}
		doc = result.Doc
	}

	s.doc.SetContent(doc)
	s.doc.Version++
	s.dirty = true
	return nil
}

func (s *Session) insertBlock(typeName string, attrs map[string]interface{}, content []*model.Node) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	typ, err := schema.NodeType(typeName)
	if err != nil {
		return err
	}
	node, err := typ.CreateAndFill(attrs, content, nil)
	if err != nil || node == nil {
		return ErrInvalidContent
	}
	return s.insertBlockLocked(node)
}

// insertBlockLocked must be called with the lock held.
func (s *Session) insertBlockLocked(node *model.Node) error {
	blocks, err := s.blocksLocked()
	if err != nil {
		return err
	}
	at := s.cursor
	if at > len(blocks) {
		at = len(blocks)
	}
	updated := make([]*model.Node, 0, len(blocks)+1)
	updated = append(updated, blocks[:at]...)
	updated = append(updated, node)
	updated = append(updated, blocks[at:]...)
	if err := s.replaceBlocksLocked(updated); err != nil {
		return err
	}
	s.cursor = at + 1
	return nil
}

// blocksLocked returns the top-level blocks. Must be called with the lock
// held.
func (s *Session) blocksLocked() ([]*model.Node, error) {
	content, err := s.doc.Content()
	if err != nil {
		return nil, err
	}
	var blocks []*model.Node
	content.ForEach(func(child *model.Node, _ int, _ int) {
		blocks = append(blocks, child)
	})
	return blocks, nil
}

// replaceBlocksLocked rebuilds the document with the given top-level
// blocks, bumps the version, and requests an onChange emission. Must be
// called with the lock held.
func (s *Session) replaceBlocksLocked(blocks []*model.Node) error {
	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	typ, err := schema.NodeType(schema.Spec.TopNode)
	if err != nil {
		return err
	}
	doc, err := typ.CreateAndFill(nil, blocks, nil)
	if err != nil || doc == nil {
		return ErrInvalidContent
	}
	s.doc.SetContent(doc)
	s.doc.Version++
	s.dirty = true
	return nil
}

// unlockAndEmit releases the lock and fires onChange outside of it when a
// mutation happened, so that the host callback can read the session.
func (s *Session) unlockAndEmit() {
	dirty := s.dirty
	s.dirty = false
	var snapshot map[string]interface{}
	if dirty {
		snapshot = s.doc.RawContent
	}
	s.mu.Unlock()
	if dirty {
		s.emit(snapshot)
	}
}

func (s *Session) emit(snapshot map[string]interface{}) {
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}

package post

import (
	"github.com/cozy/prosemirror-go/model"

	"github.com/openpress/openpress-stack/pkg/provider"
)

// SelectionState reflects the marks and block type at the current
// selection. It is derived from the document on every call, never tracked
// independently, so it cannot desynchronize from the actual content.
type SelectionState struct {
	Strong     bool   `json:"strong"`
	Em         bool   `json:"em"`
	Code       bool   `json:"code"`
	Strike     bool   `json:"strike"`
	Underline  bool   `json:"underline"`
	Link       string `json:"link,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
	FontFamily string `json:"fontFamily,omitempty"`
	Color      string `json:"color,omitempty"`
	Highlight  string `json:"highlight,omitempty"`

	// HeadingLevel is 0 for a paragraph, 1 to 6 for headings.
	HeadingLevel int    `json:"headingLevel"`
	CodeBlock    bool   `json:"codeBlock"`
	BlockType    string `json:"blockType"`
}

// SelectionState derives the toolbar state from the block at the cursor.
func (s *Session) SelectionState() (SelectionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SelectionState{BlockType: "paragraph"}
	block, _, err := s.selectedBlockLocked()
	if err != nil {
		return state, err
	}
	if block == nil {
		return state, nil
	}

	state.BlockType = block.Type.Name
	switch block.Type.Name {
	case "heading":
		if level, ok := block.Attrs["level"].(int); ok {
			state.HeadingLevel = level
		} else if level, ok := block.Attrs["level"].(float64); ok {
			state.HeadingLevel = int(level)
		}
	case "codeBlock":
		state.CodeBlock = true
	}

	for _, mark := range firstTextMarks(block) {
		switch mark.Type.Name {
		case "strong":
			state.Strong = true
		case "em":
			state.Em = true
		case "code":
			state.Code = true
		case "strike":
			state.Strike = true
		case "underline":
			state.Underline = true
		case "link":
			state.Link = stringAttr(mark.Attrs, "href")
		case "highlight":
			state.Highlight = stringAttr(mark.Attrs, "color")
		case "textStyle":
			state.FontSize = stringAttr(mark.Attrs, "fontSize")
			state.FontFamily = stringAttr(mark.Attrs, "fontFamily")
			state.Color = stringAttr(mark.Attrs, "color")
		}
	}
	return state, nil
}

// ToggleMark toggles a simple mark (em, strong, code, strike, underline)
// on every text node of the selected block: removed when all of them carry
// it, added otherwise.
func (s *Session) ToggleMark(name string) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	markType, err := schema.MarkType(name)
	if err != nil {
		return err
	}

	block, index, err := s.selectedBlockLocked()
	if err != nil || block == nil {
		return err
	}

	all := true
	forEachText(block, func(n *model.Node) {
		if !hasMark(n.Marks, name) {
			all = false
		}
	})

	updated, err := mapTextNodes(schema, block, func(text string, marks []*model.Mark) (string, []*model.Mark) {
		if all {
			return text, removeMark(marks, name)
		}
		return text, markType.Create(nil).AddToSet(marks)
	})
	if err != nil {
		return err
	}
	return s.replaceBlockLocked(index, updated)
}

// SetTextStyle merges the given textStyle attributes (fontSize, fontFamily,
// color) onto the selected block. Setting every attribute to the empty
// string removes the mark entirely.
func (s *Session) SetTextStyle(attrs map[string]interface{}) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	markType, err := schema.MarkType("textStyle")
	if err != nil {
		return err
	}
	block, index, err := s.selectedBlockLocked()
	if err != nil || block == nil {
		return err
	}

	updated, err := mapTextNodes(schema, block, func(text string, marks []*model.Mark) (string, []*model.Mark) {
		merged := map[string]interface{}{}
		for _, mark := range marks {
			if mark.Type.Name == "textStyle" {
				for k, v := range mark.Attrs {
					merged[k] = v
				}
			}
		}
		for k, v := range attrs {
			merged[k] = v
		}
		marks = removeMark(marks, "textStyle")
		if stringAttr(merged, "fontSize") == "" &&
			stringAttr(merged, "fontFamily") == "" &&
			stringAttr(merged, "color") == "" {
			return text, marks
		}
		return text, markType.Create(merged).AddToSet(marks)
	})
	if err != nil {
		return err
	}
	return s.replaceBlockLocked(index, updated)
}

// SetFontSize sets the font size of the selected block, in pixels, as a
// bare number string. The empty string unsets it.
func (s *Session) SetFontSize(size string) error {
	return s.SetTextStyle(map[string]interface{}{"fontSize": size})
}

// SetFontFamily sets the font family of the selected block.
func (s *Session) SetFontFamily(family string) error {
	return s.SetTextStyle(map[string]interface{}{"fontFamily": family})
}

// SetColor sets the text color of the selected block.
func (s *Session) SetColor(color string) error {
	return s.SetTextStyle(map[string]interface{}{"color": color})
}

// SetHighlight sets the highlight color of the selected block. The empty
// string removes the highlight.
func (s *Session) SetHighlight(color string) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	markType, err := schema.MarkType("highlight")
	if err != nil {
		return err
	}
	block, index, err := s.selectedBlockLocked()
	if err != nil || block == nil {
		return err
	}
	updated, err := mapTextNodes(schema, block, func(text string, marks []*model.Mark) (string, []*model.Mark) {
		marks = removeMark(marks, "highlight")
		if color == "" {
			return text, marks
		}
		return text, markType.Create(map[string]interface{}{"color": color}).AddToSet(marks)
	})
	if err != nil {
		return err
	}
	return s.replaceBlockLocked(index, updated)
}

// SetHeading turns the selected block into a heading of the given level, or
// back into a paragraph for level 0.
func (s *Session) SetHeading(level int) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	block, index, err := s.selectedBlockLocked()
	if err != nil || block == nil {
		return err
	}

	typeName := "heading"
	var attrs map[string]interface{}
	if level <= 0 {
		typeName = "paragraph"
	} else {
		attrs = map[string]interface{}{"level": level}
	}
	typ, err := schema.NodeType(typeName)
	if err != nil {
		return err
	}
	updated, err := typ.CreateAndFill(attrs, inlineContent(block), nil)
	if err != nil || updated == nil {
		return ErrInvalidContent
	}
	return s.replaceBlockLocked(index, updated)
}

// ToggleCodeBlock switches the selected block between a code block and a
// paragraph. Code blocks do not allow marks, so they are stripped.
func (s *Session) ToggleCodeBlock() error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	block, index, err := s.selectedBlockLocked()
	if err != nil || block == nil {
		return err
	}

	typeName := "codeBlock"
	if block.Type.Name == "codeBlock" {
		typeName = "paragraph"
	}
	typ, err := schema.NodeType(typeName)
	if err != nil {
		return err
	}
	var content []*model.Node
	if text := block.TextContent(); text != "" {
		content = append(content, schema.Text(text, nil))
	}
	updated, err := typ.CreateAndFill(nil, content, nil)
	if err != nil || updated == nil {
		return ErrInvalidContent
	}
	return s.replaceBlockLocked(index, updated)
}

// WrapInList wraps the selected block in a bullet or ordered list.
func (s *Session) WrapInList(ordered bool) error {
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	block, index, err := s.selectedBlockLocked()
	if err != nil || block == nil {
		return err
	}
	if block.Type.Name != "paragraph" {
		return nil
	}

	itemType, err := schema.NodeType("listItem")
	if err != nil {
		return err
	}
	item, err := itemType.CreateAndFill(nil, []*model.Node{block}, nil)
	if err != nil || item == nil {
		return ErrInvalidContent
	}
	listName := "bulletList"
	if ordered {
		listName = "orderedList"
	}
	listType, err := schema.NodeType(listName)
	if err != nil {
		return err
	}
	list, err := listType.CreateAndFill(nil, []*model.Node{item}, nil)
	if err != nil || list == nil {
		return ErrInvalidContent
	}
	return s.replaceBlockLocked(index, list)
}

// InsertTable inserts an empty table with the interactively chosen number
// of rows and columns at the cursor.
func (s *Session) InsertTable(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return ErrInvalidCursor
	}
	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	paraType, err := schema.NodeType("paragraph")
	if err != nil {
		return err
	}
	cellType, err := schema.NodeType("tableCell")
	if err != nil {
		return err
	}
	rowType, err := schema.NodeType("tableRow")
	if err != nil {
		return err
	}
	tableType, err := schema.NodeType("table")
	if err != nil {
		return err
	}

	rowNodes := make([]*model.Node, 0, rows)
	for i := 0; i < rows; i++ {
		cells := make([]*model.Node, 0, cols)
		for j := 0; j < cols; j++ {
			para, err := paraType.CreateAndFill(nil, nil, nil)
			if err != nil || para == nil {
				return ErrInvalidContent
			}
			cell, err := cellType.CreateAndFill(nil, []*model.Node{para}, nil)
			if err != nil || cell == nil {
				return ErrInvalidContent
			}
			cells = append(cells, cell)
		}
		row, err := rowType.CreateAndFill(nil, cells, nil)
		if err != nil || row == nil {
			return ErrInvalidContent
		}
		rowNodes = append(rowNodes, row)
	}
	table, err := tableType.CreateAndFill(nil, rowNodes, nil)
	if err != nil || table == nil {
		return ErrInvalidContent
	}
	return s.insertBlockLocked(table)
}

// InsertLinkOrEmbed reclassifies a user-supplied URL: embeddable URLs
// become an embed block, anything else applies a link mark to the selected
// block.
func (s *Session) InsertLinkOrEmbed(url string) error {
	if attrs := provider.Classify(url); attrs != nil {
		return s.InsertEmbed(attrs)
	}

	s.mu.Lock()
	defer s.unlockAndEmit()

	schema, err := s.doc.Schema()
	if err != nil {
		return err
	}
	markType, err := schema.MarkType("link")
	if err != nil {
		return err
	}
	block, index, err := s.selectedBlockLocked()
	if err != nil || block == nil {
		return err
	}
	updated, err := mapTextNodes(schema, block, func(text string, marks []*model.Mark) (string, []*model.Mark) {
		marks = removeMark(marks, "link")
		return text, markType.Create(map[string]interface{}{"href": url}).AddToSet(marks)
	})
	if err != nil {
		return err
	}
	return s.replaceBlockLocked(index, updated)
}

// selectedBlockLocked returns the block at the selection and its index, or
// nil for an empty document. Must be called with the lock held.
func (s *Session) selectedBlockLocked() (*model.Node, int, error) {
	blocks, err := s.blocksLocked()
	if err != nil {
		return nil, 0, err
	}
	if len(blocks) == 0 {
		return nil, 0, nil
	}
	index := s.cursor
	if index >= len(blocks) {
		index = len(blocks) - 1
	}
	if index < 0 {
		index = 0
	}
	return blocks[index], index, nil
}

// replaceBlockLocked swaps one top-level block. Must be called with the
// lock held.
func (s *Session) replaceBlockLocked(index int, node *model.Node) error {
	blocks, err := s.blocksLocked()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(blocks) {
		return ErrInvalidCursor
	}
	blocks[index] = node
	return s.replaceBlocksLocked(blocks)
}

// forEachText walks the text descendants of a node.
func forEachText(node *model.Node, fn func(*model.Node)) {
	if node.IsText() {
		fn(node)
		return
	}
	node.ForEach(func(child *model.Node, _ int, _ int) {
		forEachText(child, fn)
	})
}

// firstTextMarks returns the marks of the first text descendant.
func firstTextMarks(node *model.Node) []*model.Mark {
	var marks []*model.Mark
	found := false
	forEachText(node, func(n *model.Node) {
		if !found {
			marks = n.Marks
			found = true
		}
	})
	return marks
}

// mapTextNodes rebuilds a block, applying fn to every text node.
func mapTextNodes(schema *model.Schema, node *model.Node, fn func(string, []*model.Mark) (string, []*model.Mark)) (*model.Node, error) {
	if node.IsText() {
		text, marks := fn(*node.Text, node.Marks)
		return schema.Text(text, marks), nil
	}
	var children []*model.Node
	var childErr error
	node.ForEach(func(child *model.Node, _ int, _ int) {
		if childErr != nil {
			return
		}
		updated, err := mapTextNodes(schema, child, fn)
		if err != nil {
			childErr = err
			return
		}
		children = append(children, updated)
	})
	if childErr != nil {
		return nil, childErr
	}
	updated, err := node.Type.CreateAndFill(node.Attrs, children, node.Marks)
	if err != nil || updated == nil {
		return nil, ErrInvalidContent
	}
	return updated, nil
}

// inlineContent returns the inline children of a textblock.
func inlineContent(node *model.Node) []*model.Node {
	var children []*model.Node
	node.ForEach(func(child *model.Node, _ int, _ int) {
		children = append(children, child)
	})
	return children
}

func hasMark(marks []*model.Mark, name string) bool {
	for _, mark := range marks {
		if mark.Type.Name == name {
			return true
		}
	}
	return false
}

func removeMark(marks []*model.Mark, name string) []*model.Mark {
	var filtered []*model.Mark
	for _, mark := range marks {
		if mark.Type.Name != name {
			filtered = append(filtered, mark)
		}
	}
	return filtered
}

package models

// BlockType enumerates the structural units of a remote document tree.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockBulleted  BlockType = "bulleted_item"
	BlockNumbered  BlockType = "numbered_item"
	BlockChecklist BlockType = "checklist_item"
	BlockCode      BlockType = "code"
	BlockQuote     BlockType = "quote"
	BlockDivider   BlockType = "divider"
	BlockTable     BlockType = "table"
	BlockImage     BlockType = "image"
)

// RichTextSpan is a run of text with independently combinable annotations
// and an optional link target.
type RichTextSpan struct {
	Text          string `json:"text"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Link          string `json:"link,omitempty"`
}

// RichText is an ordered sequence of spans forming one text run.
type RichText []RichTextSpan

// Plain concatenates the spans without markers.
func (rt RichText) Plain() string {
	var out string
	for _, s := range rt {
		out += s.Text
	}
	return out
}

// Block is one node of a remote document's content tree. Type-specific
// fields are zero-valued for types that do not use them.
type Block struct {
	ID          string     `json:"id,omitempty"`
	Type        BlockType  `json:"type"`
	Text        RichText   `json:"rich_text,omitempty"`
	Level       int        `json:"level,omitempty"`    // heading: 1-3
	Language    string     `json:"language,omitempty"` // code
	Checked     bool       `json:"checked,omitempty"`  // checklist_item
	URL         string     `json:"url,omitempty"`      // image
	HeaderRow   bool       `json:"header_row,omitempty"`
	Rows        []TableRow `json:"rows,omitempty"`
	Children    []Block    `json:"children,omitempty"`
	HasChildren bool       `json:"has_children,omitempty"`
}

// TableRow is one table row; column count is invariant across a table.
type TableRow struct {
	Cells []RichText `json:"cells"`
}

// PlainText concatenates the block's rich-text spans without markers.
func (b Block) PlainText() string {
	return b.Text.Plain()
}

// IsListItem reports whether the block participates in list nesting.
func (b Block) IsListItem() bool {
	switch b.Type {
	case BlockBulleted, BlockNumbered, BlockChecklist:
		return true
	}
	return false
}

package markup

import (
	"testing"

	"github.com/starford/raido/internal/models"
)

func TestToBlocks_BasicTypes(t *testing.T) {
	text := "# Title\n\nSome paragraph.\n\n> a quote\n\n---\n\n![alt text](https://img.dev/x.png)\n"
	blocks := ToBlocks(text)
	wantTypes := []models.BlockType{
		models.BlockHeading,
		models.BlockParagraph,
		models.BlockQuote,
		models.BlockDivider,
		models.BlockImage,
	}
	if len(blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(wantTypes), blocks)
	}
	for i, wt := range wantTypes {
		if blocks[i].Type != wt {
			t.Errorf("block %d type = %s, want %s", i, blocks[i].Type, wt)
		}
	}
	if blocks[0].Level != 1 || blocks[0].PlainText() != "Title" {
		t.Errorf("heading = %+v", blocks[0])
	}
	if blocks[4].URL != "https://img.dev/x.png" {
		t.Errorf("image url = %q", blocks[4].URL)
	}
}

func TestToBlocks_HeadingLevels(t *testing.T) {
	blocks := ToBlocks("# one\n## two\n### three\n")
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	for i, want := range []int{1, 2, 3} {
		if blocks[i].Level != want {
			t.Errorf("block %d level = %d, want %d", i, blocks[i].Level, want)
		}
	}
}

func TestToBlocks_Lists(t *testing.T) {
	text := "- one\n- two\n1. first\n2. second\n- [ ] open\n- [x] done\n"
	blocks := ToBlocks(text)
	wantTypes := []models.BlockType{
		models.BlockBulleted, models.BlockBulleted,
		models.BlockNumbered, models.BlockNumbered,
		models.BlockChecklist, models.BlockChecklist,
	}
	if len(blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks: %+v", len(blocks), blocks)
	}
	for i, wt := range wantTypes {
		if blocks[i].Type != wt {
			t.Errorf("block %d type = %s, want %s", i, blocks[i].Type, wt)
		}
	}
	if blocks[4].Checked || !blocks[5].Checked {
		t.Errorf("checklist states: %v %v", blocks[4].Checked, blocks[5].Checked)
	}
}

func TestToBlocks_NestedLists(t *testing.T) {
	text := "- parent\n  - child\n    - grandchild\n- sibling\n"
	blocks := ToBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("got %d top-level blocks: %+v", len(blocks), blocks)
	}
	parent := blocks[0]
	if len(parent.Children) != 1 || parent.Children[0].PlainText() != "child" {
		t.Fatalf("children = %+v", parent.Children)
	}
	child := parent.Children[0]
	if len(child.Children) != 1 || child.Children[0].PlainText() != "grandchild" {
		t.Fatalf("grandchildren = %+v", child.Children)
	}
	if blocks[1].PlainText() != "sibling" || len(blocks[1].Children) != 0 {
		t.Errorf("sibling = %+v", blocks[1])
	}
}

func TestToBlocks_CodeFence(t *testing.T) {
	text := "```go\nfunc main() {}\n\nvar x = 1\n```\nafter\n"
	blocks := ToBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks: %+v", len(blocks), blocks)
	}
	code := blocks[0]
	if code.Type != models.BlockCode || code.Language != "go" {
		t.Errorf("code block = %+v", code)
	}
	if code.PlainText() != "func main() {}\n\nvar x = 1" {
		t.Errorf("code body = %q", code.PlainText())
	}
}

func TestToBlocks_UnclosedCodeFenceConsumesRest(t *testing.T) {
	blocks := ToBlocks("```\nno close\n")
	if len(blocks) != 1 || blocks[0].Type != models.BlockCode {
		t.Fatalf("blocks = %+v", blocks)
	}
	if blocks[0].PlainText() != "no close" {
		t.Errorf("body = %q", blocks[0].PlainText())
	}
}

func TestToBlocks_TableWithHeader(t *testing.T) {
	text := "| Name | Age |\n| --- | --- |\n| Ann | 30 |\n| Bo | 25 |\n"
	blocks := ToBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks: %+v", len(blocks), blocks)
	}
	tbl := blocks[0]
	if tbl.Type != models.BlockTable || !tbl.HeaderRow {
		t.Fatalf("table = %+v", tbl)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	for i, row := range tbl.Rows {
		if len(row.Cells) != 2 {
			t.Errorf("row %d has %d cells", i, len(row.Cells))
		}
	}
	if tbl.Rows[1].Cells[0].Plain() != "Ann" {
		t.Errorf("cell = %q", tbl.Rows[1].Cells[0].Plain())
	}
}

func TestToBlocks_TableRaggedRowsPadded(t *testing.T) {
	blocks := ToBlocks("| a | b | c |\n| d |\n")
	tbl := blocks[0]
	for i, row := range tbl.Rows {
		if len(row.Cells) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(row.Cells))
		}
	}
}

func TestToBlocks_NeverEmptyOnWeirdInput(t *testing.T) {
	// Total function: arbitrary junk degrades to text, never panics.
	inputs := []string{
		"",
		"\n\n\n",
		"| lone pipe",
		"####### too deep",
		"  dangling indent\n",
		"```",
	}
	for _, in := range inputs {
		_ = ToBlocks(in) // must not panic
	}
}

func TestToBlocks_InlineInsideListItem(t *testing.T) {
	blocks := ToBlocks("- has **bold** word\n")
	if len(blocks) != 1 {
		t.Fatalf("blocks = %+v", blocks)
	}
	spans := blocks[0].Text
	if len(spans) != 3 || !spans[1].Bold || spans[1].Text != "bold" {
		t.Errorf("spans = %+v", spans)
	}
}

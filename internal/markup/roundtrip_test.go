package markup

import (
	"context"
	"reflect"
	"testing"

	"github.com/starford/raido/internal/models"
)

// stripIDs zeroes fields that do not survive a markup round trip by design.
func stripIDs(blocks []models.Block) []models.Block {
	out := make([]models.Block, len(blocks))
	for i, b := range blocks {
		b.ID = ""
		b.HasChildren = false
		b.Children = stripIDs(b.Children)
		if len(b.Children) == 0 {
			b.Children = nil
		}
		out[i] = b
	}
	return out
}

func roundTrip(t *testing.T, blocks []models.Block) []models.Block {
	t.Helper()
	text, err := NewRenderer(nil).Render(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return ToBlocks(text)
}

func TestRoundTrip_EverySupportedBlockType(t *testing.T) {
	cases := map[string]models.Block{
		"paragraph": {Type: models.BlockParagraph, Text: span("plain words")},
		"heading1":  {Type: models.BlockHeading, Level: 1, Text: span("H one")},
		"heading2":  {Type: models.BlockHeading, Level: 2, Text: span("H two")},
		"heading3":  {Type: models.BlockHeading, Level: 3, Text: span("H three")},
		"bulleted":  {Type: models.BlockBulleted, Text: span("a bullet")},
		"numbered":  {Type: models.BlockNumbered, Text: span("a number")},
		"checklist": {Type: models.BlockChecklist, Checked: true, Text: span("done")},
		"code":      {Type: models.BlockCode, Language: "go", Text: span("x := 1")},
		"quote":     {Type: models.BlockQuote, Text: span("quoted")},
		"divider":   {Type: models.BlockDivider},
		"image":     {Type: models.BlockImage, URL: "https://a.b/c.png", Text: span("alt")},
		"table": {Type: models.BlockTable, HeaderRow: true, Rows: []models.TableRow{
			{Cells: []models.RichText{span("k"), span("v")}},
			{Cells: []models.RichText{span("a"), span("b")}},
		}},
	}
	for name, block := range cases {
		t.Run(name, func(t *testing.T) {
			got := roundTrip(t, []models.Block{block})
			if len(got) != 1 {
				t.Fatalf("got %d blocks: %+v", len(got), got)
			}
			want := stripIDs([]models.Block{block})
			if !reflect.DeepEqual(stripIDs(got), want) {
				t.Errorf("round trip changed block:\n got %+v\nwant %+v", got[0], want[0])
			}
		})
	}
}

func TestRoundTrip_AnnotationsSurvive(t *testing.T) {
	block := models.Block{Type: models.BlockParagraph, Text: models.RichText{
		{Text: "mix "},
		{Text: "bold", Bold: true},
		{Text: " and "},
		{Text: "struck code", Code: true, Strikethrough: true},
		{Text: " plus "},
		{Text: "a link", Italic: true, Link: "https://x.y"},
	}}
	got := roundTrip(t, []models.Block{block})
	if len(got) != 1 {
		t.Fatalf("got %+v", got)
	}
	if !reflect.DeepEqual(got[0].Text, block.Text) {
		t.Errorf("spans changed:\n got %+v\nwant %+v", got[0].Text, block.Text)
	}
}

func TestRoundTrip_NestedListTree(t *testing.T) {
	blocks := []models.Block{
		{Type: models.BlockNumbered, Text: span("outer"), Children: []models.Block{
			{Type: models.BlockBulleted, Text: span("mid"), Children: []models.Block{
				{Type: models.BlockChecklist, Checked: false, Text: span("inner")},
			}},
		}},
		{Type: models.BlockNumbered, Text: span("outer two")},
	}
	got := roundTrip(t, blocks)
	if !reflect.DeepEqual(stripIDs(got), stripIDs(blocks)) {
		t.Errorf("tree changed:\n got %+v\nwant %+v", got, blocks)
	}
}

func TestRoundTrip_TextDirection_PreservesTypeSequence(t *testing.T) {
	text := "# Doc\n\nIntro paragraph.\n\n- one\n- two\n\n1. a\n2. b\n\n> note\n\n```sh\necho hi\n```\n"
	blocks := ToBlocks(text)
	rendered, err := NewRenderer(nil).Render(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	again := ToBlocks(rendered)
	if len(again) != len(blocks) {
		t.Fatalf("block count changed: %d -> %d", len(blocks), len(again))
	}
	for i := range blocks {
		if again[i].Type != blocks[i].Type {
			t.Errorf("block %d type %s -> %s", i, blocks[i].Type, again[i].Type)
		}
		if !reflect.DeepEqual(again[i].Text, blocks[i].Text) {
			t.Errorf("block %d text changed: %+v -> %+v", i, blocks[i].Text, again[i].Text)
		}
	}
}

package markup

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/raido/internal/models"
)

// ChildFetcher resolves a block's children from the remote service when the
// tree was fetched shallow. Fetches must be idempotent for a given block id.
type ChildFetcher interface {
	GetChildren(ctx context.Context, blockID string) ([]models.Block, error)
}

// Renderer converts a block tree to Markdown text. A nil fetcher renders
// only children already resolved in memory.
type Renderer struct {
	fetch ChildFetcher
}

// NewRenderer creates a Renderer that resolves unloaded children via fetch.
func NewRenderer(fetch ChildFetcher) *Renderer {
	return &Renderer{fetch: fetch}
}

// Render converts blocks to Markdown. The error is non-nil only when a
// remote child fetch fails; block content itself never errors.
func (r *Renderer) Render(ctx context.Context, blocks []models.Block) (string, error) {
	var b strings.Builder
	counters := make(map[int]int)
	if err := r.renderAt(ctx, &b, blocks, 0, counters); err != nil {
		return "", err
	}
	// Block separators leave blank lines at the end; a document ends with
	// exactly one newline.
	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

// renderAt renders blocks at the given indent level. Numbered-item counters
// are per level: a non-list block resets the counter for its level, and each
// parent's children restart from 1.
func (r *Renderer) renderAt(ctx context.Context, b *strings.Builder, blocks []models.Block, level int, counters map[int]int) error {
	prefix := strings.Repeat("  ", level)
	for _, blk := range blocks {
		// Numbering is per contiguous run: any other block type at this
		// level interrupts the run and resets the counter.
		if blk.Type != models.BlockNumbered {
			delete(counters, level)
		}

		switch blk.Type {
		case models.BlockHeading:
			lv := blk.Level
			if lv < 1 || lv > 3 {
				lv = 1
			}
			fmt.Fprintf(b, "%s%s %s\n\n", prefix, strings.Repeat("#", lv), RenderSpans(blk.Text))

		case models.BlockBulleted:
			fmt.Fprintf(b, "%s- %s\n", prefix, RenderSpans(blk.Text))

		case models.BlockNumbered:
			counters[level]++
			fmt.Fprintf(b, "%s%d. %s\n", prefix, counters[level], RenderSpans(blk.Text))

		case models.BlockChecklist:
			box := " "
			if blk.Checked {
				box = "x"
			}
			fmt.Fprintf(b, "%s- [%s] %s\n", prefix, box, RenderSpans(blk.Text))

		case models.BlockCode:
			fmt.Fprintf(b, "%s```%s\n", prefix, blk.Language)
			for _, line := range strings.Split(blk.PlainText(), "\n") {
				fmt.Fprintf(b, "%s%s\n", prefix, line)
			}
			fmt.Fprintf(b, "%s```\n\n", prefix)

		case models.BlockQuote:
			fmt.Fprintf(b, "%s> %s\n\n", prefix, RenderSpans(blk.Text))

		case models.BlockDivider:
			fmt.Fprintf(b, "%s---\n\n", prefix)

		case models.BlockTable:
			r.renderTable(b, blk, prefix)

		case models.BlockImage:
			fmt.Fprintf(b, "%s![%s](%s)\n\n", prefix, blk.PlainText(), blk.URL)

		case models.BlockParagraph:
			fmt.Fprintf(b, "%s%s\n\n", prefix, RenderSpans(blk.Text))

		default:
			// Unknown block type: best-effort text extraction, never abort.
			if t := RenderSpans(blk.Text); t != "" {
				fmt.Fprintf(b, "%s%s\n\n", prefix, t)
			}
		}

		children := blk.Children
		if len(children) == 0 && blk.HasChildren && blk.ID != "" && r.fetch != nil {
			fetched, err := r.fetch.GetChildren(ctx, blk.ID)
			if err != nil {
				return fmt.Errorf("markup: fetch children of %s: %w", blk.ID, err)
			}
			children = fetched
		}
		if len(children) > 0 {
			// Each branch restarts its children's numbering.
			delete(counters, level+1)
			if err := r.renderAt(ctx, b, children, level+1, counters); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderTable emits a well-formed table: every row padded to the same column
// count, with a separator line when the header flag is set.
func (r *Renderer) renderTable(b *strings.Builder, blk models.Block, prefix string) {
	cols := 0
	for _, row := range blk.Rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}
	if cols == 0 {
		return
	}
	writeRow := func(cells []models.RichText) {
		b.WriteString(prefix)
		b.WriteString("|")
		for c := 0; c < cols; c++ {
			text := ""
			if c < len(cells) {
				text = RenderSpans(cells[c])
			}
			b.WriteString(" " + text + " |")
		}
		b.WriteString("\n")
	}
	for i, row := range blk.Rows {
		writeRow(row.Cells)
		if i == 0 && blk.HeaderRow {
			b.WriteString(prefix)
			b.WriteString("|")
			for c := 0; c < cols; c++ {
				b.WriteString(" --- |")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

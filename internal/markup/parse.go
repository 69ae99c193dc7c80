// Package markup converts between flat Markdown text and the ordered block
// tree used by the remote service. Both directions are total: unknown input
// degrades to best-effort text, it never aborts a conversion.
package markup

import (
	"regexp"
	"strings"

	"github.com/starford/raido/internal/models"
)

var (
	numberedRe = regexp.MustCompile(`^(\d+)[.)] (.*)$`)
	imageRe    = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]*)\)$`)
	tableSepRe = regexp.MustCompile(`^\|?[\s:|-]+\|?$`)
)

// ToBlocks parses Markdown text into a block tree. List children nest via
// indentation (two spaces or one tab per level), arbitrarily deep.
func ToBlocks(text string) []models.Block {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	blocks, _ := parseAt(lines, 0, 0)
	return blocks
}

// parseAt parses lines[i:] whose indent is >= level, returning the blocks at
// exactly this level and the index of the first unconsumed line.
func parseAt(lines []string, i, level int) ([]models.Block, int) {
	var out []models.Block
	for i < len(lines) {
		raw := lines[i]
		if strings.TrimSpace(raw) == "" {
			i++
			continue
		}
		depth, line := indentOf(raw)
		if depth < level {
			return out, i
		}
		if depth > level {
			// Deeper content with no list item to attach to: attach to the
			// previous list item when possible, otherwise flatten.
			if n := len(out); n > 0 && out[n-1].IsListItem() {
				children, next := parseAt(lines, i, depth)
				out[n-1].Children = append(out[n-1].Children, children...)
				i = next
				continue
			}
			line = strings.TrimSpace(raw)
		}

		switch {
		case strings.HasPrefix(line, "```"):
			block, next := parseCodeFence(lines, i, level)
			out = append(out, block)
			i = next

		case line == "---" || line == "***":
			out = append(out, models.Block{Type: models.BlockDivider})
			i++

		case strings.HasPrefix(line, "# "):
			out = append(out, heading(1, line[2:]))
			i++
		case strings.HasPrefix(line, "## "):
			out = append(out, heading(2, line[3:]))
			i++
		case strings.HasPrefix(line, "### "):
			out = append(out, heading(3, line[4:]))
			i++

		case strings.HasPrefix(line, "> "):
			out = append(out, models.Block{Type: models.BlockQuote, Text: ParseSpans(line[2:])})
			i++

		case strings.HasPrefix(line, "- [ ] ") || strings.HasPrefix(line, "- [x] ") || strings.HasPrefix(line, "- [X] "):
			checked := line[3] == 'x' || line[3] == 'X'
			item := models.Block{Type: models.BlockChecklist, Checked: checked, Text: ParseSpans(line[6:])}
			i = attachChildren(lines, i+1, level, &item)
			out = append(out, item)

		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			item := models.Block{Type: models.BlockBulleted, Text: ParseSpans(line[2:])}
			i = attachChildren(lines, i+1, level, &item)
			out = append(out, item)

		case numberedRe.MatchString(line):
			m := numberedRe.FindStringSubmatch(line)
			item := models.Block{Type: models.BlockNumbered, Text: ParseSpans(m[2])}
			i = attachChildren(lines, i+1, level, &item)
			out = append(out, item)

		case imageRe.MatchString(line):
			m := imageRe.FindStringSubmatch(line)
			out = append(out, models.Block{
				Type: models.BlockImage,
				URL:  m[2],
				Text: []models.RichTextSpan{{Text: m[1]}},
			})
			i++

		case isTableRow(line):
			block, next := parseTable(lines, i, level)
			out = append(out, block)
			i = next

		default:
			out = append(out, models.Block{Type: models.BlockParagraph, Text: ParseSpans(line)})
			i++
		}
	}
	return out, i
}

// attachChildren parses any lines indented deeper than level as children of
// item, returning the first unconsumed index.
func attachChildren(lines []string, i, level int, item *models.Block) int {
	if i >= len(lines) {
		return i
	}
	// Peek past blank lines: children may be separated from the item.
	j := i
	for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
		j++
	}
	if j >= len(lines) {
		return i
	}
	if depth, _ := indentOf(lines[j]); depth > level {
		children, next := parseAt(lines, j, depth)
		item.Children = children
		return next
	}
	return i
}

func heading(level int, rest string) models.Block {
	return models.Block{Type: models.BlockHeading, Level: level, Text: ParseSpans(rest)}
}

// indentOf returns the nesting level of a line (two spaces or one tab per
// level) and the line with indentation stripped.
func indentOf(line string) (int, string) {
	spaces := 0
	i := 0
	for i < len(line) {
		switch line[i] {
		case ' ':
			spaces++
		case '\t':
			spaces += 2
		default:
			return spaces / 2, line[i:]
		}
		i++
	}
	return spaces / 2, ""
}

func parseCodeFence(lines []string, i, level int) (models.Block, int) {
	_, open := indentOf(lines[i])
	lang := strings.TrimSpace(strings.TrimPrefix(open, "```"))
	var body []string
	i++
	closed := false
	for i < len(lines) {
		_, line := indentOf(lines[i])
		if strings.HasPrefix(line, "```") {
			i++
			closed = true
			break
		}
		body = append(body, lines[i])
		i++
	}
	// A fence running to end of input swallows the split's final empty
	// element; that phantom line is not code.
	if !closed && len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	return models.Block{
		Type:     models.BlockCode,
		Language: lang,
		Text:     []models.RichTextSpan{{Text: strings.Join(body, "\n")}},
	}, i
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.Count(line, "|") >= 2
}

// parseTable consumes consecutive table rows. A separator row directly after
// the first row marks it as a header.
func parseTable(lines []string, i, level int) (models.Block, int) {
	var rows []models.TableRow
	header := false
	rowIdx := 0
	for i < len(lines) {
		_, line := indentOf(lines[i])
		if !isTableRow(line) {
			break
		}
		if rowIdx == 1 && tableSepRe.MatchString(line) {
			header = true
			i++
			continue
		}
		rows = append(rows, parseTableRow(line))
		rowIdx++
		i++
	}
	// Column count is invariant: pad short rows to the widest.
	cols := 0
	for _, r := range rows {
		if len(r.Cells) > cols {
			cols = len(r.Cells)
		}
	}
	for ri := range rows {
		for len(rows[ri].Cells) < cols {
			rows[ri].Cells = append(rows[ri].Cells, models.RichText{})
		}
	}
	return models.Block{Type: models.BlockTable, HeaderRow: header, Rows: rows}, i
}

func parseTableRow(line string) models.TableRow {
	trimmed := strings.TrimPrefix(line, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	cells := strings.Split(trimmed, "|")
	row := models.TableRow{Cells: make([]models.RichText, 0, len(cells))}
	for _, c := range cells {
		row.Cells = append(row.Cells, ParseSpans(strings.TrimSpace(c)))
	}
	return row
}

package output

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// NotAvailable stands in for NaN and infinite values.
const NotAvailable = "n/a"

// Goodness-of-fit bands used for coloring r² values.
const (
	R2Good = 0.9
	R2Fair = 0.7
)

type cellKind uint8

const (
	textCell cellKind = iota
	numberCell
	r2Cell
	blankCell
)

// Cell is one table value. Numbers keep their float value until render
// time so every format shows non-finite values and r² bands the same way.
type Cell struct {
	kind  cellKind
	text  string
	value float64
}

// Text is a literal cell.
func Text(s string) Cell { return Cell{kind: textCell, text: s} }

// Number is a value shown with six significant digits.
func Number(v float64) Cell { return Cell{kind: numberCell, value: v} }

// R2 is a coefficient of determination shown to four decimals.
func R2(v float64) Cell { return Cell{kind: r2Cell, value: v} }

// Blank marks a value that does not exist, such as the scale of a
// dataset with a zero range.
func Blank() Cell { return Cell{kind: blankCell} }

// String returns the plain cell text.
func (c Cell) String() string {
	switch c.kind {
	case numberCell:
		return FormatNumber(c.value)
	case r2Cell:
		return FormatR2(c.value)
	case blankCell:
		return "-"
	default:
		return c.text
	}
}

// Render returns the cell text, with r² cells colored by band.
func (c Cell) Render(colored bool) string {
	s := c.String()
	if colored && c.kind == r2Cell {
		return R2Color(c.value, s)
	}
	return s
}

// Value is what the cell serializes to: nil for blank and non-finite cells.
func (c Cell) Value() any {
	switch c.kind {
	case textCell:
		return c.text
	case numberCell, r2Cell:
		if isFinite(c.value) {
			return c.value
		}
	}
	return nil
}

func (c Cell) numeric() bool {
	return c.kind == numberCell || c.kind == r2Cell
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatNumber formats v with six significant digits.
func FormatNumber(v float64) string {
	if !isFinite(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// FormatR2 formats an r² score to four decimals.
func FormatR2(v float64) string {
	if !isFinite(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// R2Color colors text by how well a model explains the data.
// Non-finite scores are shown in red.
func R2Color(r2 float64, text string) string {
	switch {
	case r2 >= R2Good:
		return color.GreenString(text)
	case r2 >= R2Fair:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}

// Table is a titled grid of cells with an optional text footer.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]Cell
	Footer  []string
}

// NewTable creates an empty table.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow appends a row and returns t.
func (t *Table) AddRow(cells ...Cell) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// RenderData returns one map per row, keyed by header.
func (t *Table) RenderData() any {
	result := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]any, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j].Value()
			}
		}
		result[i] = m
	}
	return result
}

// alignments right-aligns columns whose cells are all numeric.
func (t *Table) alignments() []tw.Align {
	aligns := make([]tw.Align, len(t.Headers))
	for j := range aligns {
		numeric := len(t.Rows) > 0
		for _, row := range t.Rows {
			if j < len(row) && !row[j].numeric() && row[j].kind != blankCell {
				numeric = false
				break
			}
		}
		aligns[j] = tw.AlignLeft
		if numeric {
			aligns[j] = tw.AlignRight
		}
	}
	return aligns
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	writeTitle(w, t.Title, "=", colored, color.Bold)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignmentConfig(tw.CellAlignment{Global: tw.AlignLeft, PerColumn: t.alignments()}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
	table.Header(t.Headers)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = c.Render(colored)
		}
		if err := table.Append(cells); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		footer := make([]any, len(t.Footer))
		for i, f := range t.Footer {
			footer[i] = f
		}
		table.Footer(footer...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	writeMarkdownRow(w, t.Headers)

	seps := make([]string, len(t.Headers))
	for i, a := range t.alignments() {
		seps[i] = "---"
		if a == tw.AlignRight {
			seps[i] = "---:"
		}
	}
	writeMarkdownRow(w, seps)

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = c.String()
		}
		writeMarkdownRow(w, cells)
	}
	if len(t.Footer) > 0 {
		writeMarkdownRow(w, t.Footer)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeMarkdownRow(w io.Writer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
}

func writeTitle(w io.Writer, title, underline string, colored bool, attrs ...color.Attribute) {
	if title == "" {
		return
	}
	if colored {
		color.New(attrs...).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(underline, len([]rune(title))))
	fmt.Fprintln(w)
}

// Section is a block of text lines under an optional heading.
type Section struct {
	Title string   `json:"title,omitempty"`
	Lines []string `json:"lines,omitempty"`
}

func (s *Section) RenderData() any {
	return s
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	if s.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, s.Title)
		} else {
			fmt.Fprintln(w, s.Title)
		}
		fmt.Fprintln(w, strings.Repeat("-", len([]rune(s.Title))))
	}
	for _, line := range s.Lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	if s.Title != "" {
		fmt.Fprintf(w, "### %s\n\n", s.Title)
	}
	for _, line := range s.Lines {
		fmt.Fprintf(w, "%s  \n", line)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Report is a titled sequence of sections and tables.
type Report struct {
	Title    string
	Sections []Renderable
}

func (r *Report) RenderData() any {
	parts := make([]any, len(r.Sections))
	for i, s := range r.Sections {
		parts[i] = s.RenderData()
	}
	return map[string]any{
		"title":    r.Title,
		"sections": parts,
	}
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	writeTitle(w, r.Title, "=", colored, color.Bold, color.FgCyan)
	for i, s := range r.Sections {
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
		if i < len(r.Sections)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

package fitting

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"

	"github.com/panbanda/fitpaper/internal/fileproc"
	"github.com/panbanda/fitpaper/internal/output"
	"github.com/panbanda/fitpaper/pkg/fit"
	"github.com/panbanda/fitpaper/pkg/models"
	"github.com/panbanda/fitpaper/pkg/stats"
)

// Views are the serialisable shapes of results. Non-finite numbers from
// degenerate fits become null because JSON cannot carry them.

// ParamView is one model coefficient.
type ParamView struct {
	Name  string   `json:"name" toon:"name"`
	Value *float64 `json:"value" toon:"value"`
}

// ModelView describes a fitted model.
type ModelView struct {
	Type     string      `json:"type" toon:"type"`
	Label    string      `json:"label" toon:"label"`
	Equation string      `json:"equation" toon:"equation"`
	R2       *float64    `json:"r2" toon:"r2"`
	Valid    bool        `json:"valid" toon:"valid"`
	N        int         `json:"n" toon:"n"`
	Params   []ParamView `json:"params" toon:"params"`
}

// ResultView is the serialisable form of a Result.
type ResultView struct {
	Path        string              `json:"path,omitempty" toon:"path"`
	Name        string              `json:"name,omitempty" toon:"name"`
	Points      int                 `json:"points" toon:"points"`
	Fingerprint string              `json:"fingerprint" toon:"fingerprint"`
	Mode        string              `json:"mode" toon:"mode"`
	Model       *ModelView          `json:"model" toon:"model"`
	Orientation string              `json:"orientation" toon:"orientation"`
	Scales      models.ScaleReport  `json:"scales" toon:"scales"`
	Active      *models.ScaleResult `json:"active_scale" toon:"active_scale"`
	Residuals   *ResidualView       `json:"residuals,omitempty" toon:"residuals"`
}

// ResidualView summarises absolute residuals over the points in the
// model's domain.
type ResidualView struct {
	Median *float64 `json:"median_abs" toon:"median_abs"`
	P90    *float64 `json:"p90_abs" toon:"p90_abs"`
	Max    *float64 `json:"max_abs" toon:"max_abs"`
}

// NewResidualView returns nil when m is nil or no point lies in its domain.
// Non-finite residuals are skipped; if none are finite every field is nil.
func NewResidualView(m *models.FittedModel, points []models.Point) *ResidualView {
	if m == nil {
		return nil
	}
	inDomain := make([]models.Point, 0, len(points))
	for _, p := range points {
		if m.Domain(p.X) {
			inDomain = append(inDomain, p)
		}
	}
	if len(inDomain) == 0 {
		return nil
	}

	abs := make([]float64, 0, len(inDomain))
	for _, r := range stats.Residuals(inDomain, m.Predict) {
		if finite(r) != nil {
			abs = append(abs, math.Abs(r))
		}
	}
	if len(abs) == 0 {
		return &ResidualView{}
	}
	slices.Sort(abs)
	return &ResidualView{
		Median: finite(stats.Percentile(abs, 50)),
		P90:    finite(stats.Percentile(abs, 90)),
		Max:    finite(abs[len(abs)-1]),
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewModelView converts m, returning nil for nil.
func NewModelView(m *models.FittedModel) *ModelView {
	if m == nil {
		return nil
	}
	params := make([]ParamView, len(m.Params))
	for i, p := range m.Params {
		params[i] = ParamView{Name: p.Name, Value: finite(p.Value)}
	}
	return &ModelView{
		Type:     string(m.Type),
		Label:    m.Type.Label(),
		Equation: m.Equation,
		R2:       finite(m.R2),
		Valid:    m.Valid(),
		N:        m.N,
		Params:   params,
	}
}

// View returns the serialisable form of r.
func (r *Result) View() ResultView {
	v := ResultView{
		Path:        r.Path,
		Name:        r.Dataset.Name,
		Points:      r.Dataset.Len(),
		Fingerprint: r.Dataset.Fingerprint(),
		Mode:        string(r.Mode),
		Model:       NewModelView(r.Model),
		Orientation: string(r.Orientation),
		Scales:      r.Scales,
		Residuals:   NewResidualView(r.Model, r.Dataset.Points),
	}
	if sc, ok := r.Scale(); ok {
		v.Active = &sc
	}
	return v
}

func formatPtr(v *float64) string {
	if v == nil {
		return output.NotAvailable
	}
	return output.FormatNumber(*v)
}

func (r *Result) title() string {
	name := r.Dataset.Name
	if name == "" && r.Path != "" {
		name = filepath.Base(r.Path)
	}
	if name == "" {
		return "Fit"
	}
	return "Fit: " + name
}

func modelSection(m *models.FittedModel, colored bool) output.Renderable {
	if m == nil {
		return &output.Section{Title: "Model", Lines: []string{fmt.Sprintf("Not enough points to fit (need at least %d).", fit.MinPoints)}}
	}
	lines := []string{m.Type.Label(), m.Equation, "r² = " + output.R2(m.R2).Render(colored)}
	if !m.Valid() {
		lines = append(lines, "The fit is degenerate: its coefficients are not finite.")
	}

	params := output.NewTable("", "Parameter", "Value")
	for _, p := range m.Params {
		params.AddRow(output.Text(p.Name), output.Number(p.Value))
	}
	return &output.Report{
		Sections: []output.Renderable{
			&output.Section{Title: "Model", Lines: lines},
			params,
		},
	}
}

func scaleRow(label string, sc *models.ScaleResult) []output.Cell {
	if sc == nil {
		return []output.Cell{output.Text(label), output.Blank(), output.Blank(), output.Blank(), output.Blank()}
	}
	return []output.Cell{
		output.Text(label),
		output.Number(sc.XPerCm),
		output.Number(sc.YPerCm),
		output.Number(sc.StartX),
		output.Number(sc.StartY),
	}
}

func scalesTable(rep models.ScaleReport, o models.Orientation) *output.Table {
	t := output.NewTable("Scales (units per cm)", "Orientation", "X per cm", "Y per cm", "Start X", "Start Y").
		AddRow(scaleRow(models.Landscape.Label(), rep.Landscape)...).
		AddRow(scaleRow(models.Portrait.Label(), rep.Portrait)...)
	active := o.Label()
	if rep.Custom.Active {
		c := rep.Custom.Result()
		t.AddRow(scaleRow("Custom", &c)...)
		active = "Custom"
	}
	t.Footer = []string{"Active", active, "", "", ""}
	return t
}

func (r *Result) report(colored bool) *output.Report {
	summary := fmt.Sprintf("%d points, fingerprint %s", r.Dataset.Len(), r.Dataset.Fingerprint())
	sections := []output.Renderable{
		&output.Section{Lines: []string{summary}},
		modelSection(r.Model, colored),
	}
	if rv := NewResidualView(r.Model, r.Dataset.Points); rv != nil {
		sections = append(sections, &output.Section{
			Title: "Residuals",
			Lines: []string{fmt.Sprintf("median |r| = %s, p90 |r| = %s, max |r| = %s", formatPtr(rv.Median), formatPtr(rv.P90), formatPtr(rv.Max))},
		})
	}
	sections = append(sections, scalesTable(r.Scales, r.Orientation))
	return &output.Report{Title: r.title(), Sections: sections}
}

func (r *Result) RenderText(w io.Writer, colored bool) error {
	return r.report(colored).RenderText(w, colored)
}

func (r *Result) RenderMarkdown(w io.Writer) error {
	return r.report(false).RenderMarkdown(w)
}

func (r *Result) RenderData() any {
	return r.View()
}

// ScaleView renders only the scales and where each point lands on paper.
type ScaleView struct {
	*Result
}

// ScaleData is the serialisable form of a ScaleView.
type ScaleData struct {
	Name        string              `json:"name,omitempty" toon:"name"`
	Orientation string              `json:"orientation" toon:"orientation"`
	Scales      models.ScaleReport  `json:"scales" toon:"scales"`
	Active      *models.ScaleResult `json:"active_scale" toon:"active_scale"`
	Placements  []Placement         `json:"placements,omitempty" toon:"placements"`
}

func (v ScaleView) report() *output.Report {
	placements := output.NewTable("Placements (cm from origin)", "X", "Y", "DX cm", "DY cm")
	for _, p := range v.Placements() {
		placements.AddRow(output.Number(p.X), output.Number(p.Y), output.Number(p.DX), output.Number(p.DY))
	}
	sections := []output.Renderable{scalesTable(v.Scales, v.Orientation)}
	if len(placements.Rows) == 0 {
		sections = append(sections, &output.Section{Lines: []string{"No scale: the data needs at least 2 points and a positive range on both axes."}})
	} else {
		sections = append(sections, placements)
	}
	return &output.Report{Title: "Paper scale", Sections: sections}
}

func (v ScaleView) RenderText(w io.Writer, colored bool) error {
	return v.report().RenderText(w, colored)
}

func (v ScaleView) RenderMarkdown(w io.Writer) error {
	return v.report().RenderMarkdown(w)
}

func (v ScaleView) RenderData() any {
	d := ScaleData{
		Name:        v.Dataset.Name,
		Orientation: string(v.Orientation),
		Scales:      v.Scales,
		Placements:  v.Placements(),
	}
	if sc, ok := v.Scale(); ok {
		d.Active = &sc
	}
	return d
}

// CurveView renders the sampled fit line.
type CurveView struct {
	*Result
}

// CurveData is the serialisable form of a CurveView.
type CurveData struct {
	Model  *ModelView     `json:"model" toon:"model"`
	Points []models.Point `json:"points" toon:"points"`
}

func (v CurveView) table() *output.Table {
	title := "Curve"
	if v.Model != nil {
		title = "Curve: " + v.Model.Equation
	}
	t := output.NewTable(title, "X", "Y")
	for _, p := range v.Curve {
		t.AddRow(output.Number(p.X), output.Number(p.Y))
	}
	return t
}

func (v CurveView) RenderText(w io.Writer, colored bool) error {
	return v.table().RenderText(w, colored)
}

func (v CurveView) RenderMarkdown(w io.Writer) error {
	return v.table().RenderMarkdown(w)
}

func (v CurveView) RenderData() any {
	return CurveData{Model: NewModelView(v.Model), Points: v.Curve}
}

// CandidateView is one row of a comparison.
type CandidateView struct {
	Type  string     `json:"type" toon:"type"`
	OK    bool       `json:"ok" toon:"ok"`
	Best  bool       `json:"best" toon:"best"`
	Model *ModelView `json:"model,omitempty" toon:"model"`
}

// ComparisonView is the serialisable form of a Comparison.
type ComparisonView struct {
	Path       string          `json:"path,omitempty" toon:"path"`
	Name       string          `json:"name,omitempty" toon:"name"`
	Points     int             `json:"points" toon:"points"`
	Best       string          `json:"best,omitempty" toon:"best"`
	Candidates []CandidateView `json:"candidates" toon:"candidates"`
}

// View returns the serialisable form of c.
func (c *Comparison) View() ComparisonView {
	v := ComparisonView{
		Path:       c.Path,
		Name:       c.Dataset.Name,
		Points:     c.Dataset.Len(),
		Candidates: make([]CandidateView, len(c.Candidates)),
	}
	if c.Best != nil {
		v.Best = string(c.Best.Type)
	}
	for i, cand := range c.Candidates {
		v.Candidates[i] = CandidateView{
			Type:  string(cand.Type),
			OK:    cand.OK,
			Best:  cand.Model != nil && cand.Model == c.Best,
			Model: NewModelView(cand.Model),
		}
	}
	return v
}

func (c *Comparison) table() *output.Table {
	title := "Model comparison"
	if c.Dataset.Name != "" {
		title += ": " + c.Dataset.Name
	}
	t := output.NewTable(title, "Model", "Equation", "R²", "Points", "Status")
	for _, cand := range c.Candidates {
		if !cand.OK {
			t.AddRow(output.Text(cand.Type.Label()), output.Blank(), output.Blank(), output.Blank(), output.Text("no fit"))
			continue
		}
		m := cand.Model
		status := ""
		switch {
		case m == c.Best:
			status = "best"
		case !m.Valid():
			status = "degenerate"
		}
		t.AddRow(output.Text(m.Type.Label()), output.Text(m.Equation), output.R2(m.R2), output.Number(float64(m.N)), output.Text(status))
	}
	if c.Best == nil {
		t.Footer = []string{"No model could be fitted", "", "", "", ""}
	}
	return t
}

func (c *Comparison) RenderText(w io.Writer, colored bool) error {
	return c.table().RenderText(w, colored)
}

func (c *Comparison) RenderMarkdown(w io.Writer) error {
	return c.table().RenderMarkdown(w)
}

func (c *Comparison) RenderData() any {
	return c.View()
}

// Batch is the outcome of fitting many files.
type Batch struct {
	Results []*Result
	Errors  []fileproc.ProcessingError
}

// NewBatch combines results with the errors collected alongside them.
func NewBatch(results []*Result, errs *fileproc.ProcessingErrors) *Batch {
	b := &Batch{Results: results}
	if errs != nil {
		b.Errors = errs.Errors
	}
	return b
}

// BatchError is one failed file.
type BatchError struct {
	Path  string `json:"path" toon:"path"`
	Error string `json:"error" toon:"error"`
}

// BatchView is the serialisable form of a Batch.
type BatchView struct {
	Results []ResultView `json:"results" toon:"results"`
	Errors  []BatchError `json:"errors,omitempty" toon:"errors"`
}

func (b *Batch) table() *output.Table {
	t := output.NewTable("Batch fit", "File", "Points", "Model", "R²", "X per cm", "Y per cm")
	for _, r := range b.Results {
		model, r2 := output.Blank(), output.Blank()
		if r.Model != nil {
			model, r2 = output.Text(r.Model.Type.Label()), output.R2(r.Model.R2)
		}
		xs, ys := output.Blank(), output.Blank()
		if sc, ok := r.Scale(); ok {
			xs, ys = output.Number(sc.XPerCm), output.Number(sc.YPerCm)
		}
		t.AddRow(output.Text(r.Path), output.Number(float64(r.Dataset.Len())), model, r2, xs, ys)
	}
	t.Footer = []string{fmt.Sprintf("%d fitted", len(b.Results)), "", "", "", "", ""}
	if len(b.Errors) > 0 {
		t.Footer[1] = fmt.Sprintf("%d failed", len(b.Errors))
	}
	return t
}

func (b *Batch) RenderText(w io.Writer, colored bool) error {
	if err := b.table().RenderText(w, colored); err != nil {
		return err
	}
	for _, e := range b.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	return nil
}

func (b *Batch) RenderMarkdown(w io.Writer) error {
	if err := b.table().RenderMarkdown(w); err != nil {
		return err
	}
	for _, e := range b.Errors {
		fmt.Fprintf(w, "- `%s`: %v\n", e.Path, e.Err)
	}
	return nil
}

func (b *Batch) RenderData() any {
	v := BatchView{Results: make([]ResultView, len(b.Results))}
	for i, r := range b.Results {
		v.Results[i] = r.View()
	}
	for _, e := range b.Errors {
		v.Errors = append(v.Errors, BatchError{Path: e.Path, Error: e.Err.Error()})
	}
	return v
}

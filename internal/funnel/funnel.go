// Package funnel tracks how far wizard sessions get and renders the result
// as text or as a PNG bar chart.
package funnel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"
)

const (
	StageStep1     = "step1"
	StageStep2     = "step2"
	StageStep3     = "step3"
	StageSubmitted = "submitted"
)

// Stages in funnel order.
var Stages = []string{StageStep1, StageStep2, StageStep3, StageSubmitted}

type Repository interface {
	Hit(ctx context.Context, stage, sessionID string) error
	Counts(ctx context.Context) (map[string]int, error)
}

type Funnel struct {
	repo Repository
	log  *zap.Logger
}

func New(repo Repository, log *zap.Logger) *Funnel {
	return &Funnel{repo: repo, log: log}
}

// Reach records that sessionID got to stage. Failures are logged, never
// returned: the funnel must not break the wizard.
func (f *Funnel) Reach(ctx context.Context, sessionID, stage string) {
	if stage == "" || sessionID == "" {
		return
	}
	if err := f.repo.Hit(ctx, stage, sessionID); err != nil {
		f.log.Warn("funnel hit failed", zap.String("stage", stage), zap.Error(err))
	}
}

func (f *Funnel) Counts(ctx context.Context) (map[string]int, error) {
	return f.repo.Counts(ctx)
}

// GraphData returns labels and values in funnel order.
func (f *Funnel) GraphData(ctx context.Context) ([]string, []int, error) {
	counts, err := f.repo.Counts(ctx)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(Stages))
	values := make([]int, 0, len(Stages))
	for _, s := range Stages {
		labels = append(labels, Label(s))
		values = append(values, counts[s])
	}
	return labels, values, nil
}

// Chart renders the funnel as text with conversion against the first stage
// and against the previous one.
func (f *Funnel) Chart(ctx context.Context) (string, error) {
	counts, err := f.repo.Counts(ctx)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "Sem dados de funil ainda\n", nil
	}
	base := counts[Stages[0]]
	if base == 0 {
		for _, s := range Stages {
			base = max(base, counts[s])
		}
	}

	var b strings.Builder
	b.WriteString("Funil do orçamento:\n")
	prev := 0
	for i, s := range Stages {
		c := counts[s]
		relPrev := 100
		if i > 0 {
			relPrev = percent(c, prev)
		}
		fmt.Fprintf(&b, "- %-9s %4d | %3d%% do início | %3d%% do anterior %s\n",
			Label(s), c, percent(c, base), relPrev, bar20(c, base))
		prev = c
	}
	return b.String(), nil
}

// RenderPNG writes the funnel as a bar chart.
func (f *Funnel) RenderPNG(ctx context.Context, w io.Writer) error {
	labels, values, err := f.GraphData(ctx)
	if err != nil {
		return err
	}
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		maxVal = max(maxVal, values[i])
		bars = append(bars, chart.Value{Value: float64(values[i]), Label: labels[i]})
	}
	// go-chart rejects an empty range.
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Title:    "Funil do orçamento",
		Width:    900,
		Height:   500,
		BarWidth: 80,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return fmt.Errorf("funnel: render chart: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func Label(stage string) string {
	switch stage {
	case StageStep1:
		return "Contato"
	case StageStep2:
		return "Projeto"
	case StageStep3:
		return "Detalhes"
	case StageSubmitted:
		return "Enviado"
	default:
		return stage
	}
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, total int) string {
	if total <= 0 {
		return ""
	}
	filled := min(max((20*val)/total, 0), 20)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

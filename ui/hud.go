package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Model        string
	Step         uint64
	Phase        string
	Paused       bool
	QueueLen     int
	FPS          int32
	Overlay      string // active view overlay, if any
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Model: %s | Step: %d | FPS: %d | Pending: %d", data.Model, data.Step, data.FPS, data.QueueLen),
		10, 35, 16, rl.LightGray,
	)

	status := data.Phase
	if data.Paused {
		status = "PAUSED"
	}
	if data.Overlay != "" {
		status += " | view: " + data.Overlay
	}
	rl.DrawText(status, 10, 55, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// DrawErrorBanner renders a failure message across the top of the screen.
// The last good frame stays visible beneath it.
func (h *HUD) DrawErrorBanner(screenWidth int32, msg string) {
	t := h.renderer.Theme
	height := t.LineHeight*2 + t.Padding
	rl.DrawRectangle(0, 80, screenWidth, height, t.ErrorBg)
	rl.DrawText("Transition failed", t.Padding, 80+t.Padding/2, t.HeaderFontSize, t.ErrorText)
	rl.DrawText(msg, t.Padding, 80+t.Padding/2+t.LineHeight, t.FontSize, t.ErrorText)
}

// StatsData holds values for the stats panel.
type StatsData struct {
	Alive        int
	Cells        int
	AlphaMean    float64
	StepsPerSec  float64
	StepMS       float64
	TransitionPc float64
	DelayMS      int
}

// StatsPanel renders automaton and performance stats.
type StatsPanel struct {
	renderer *Renderer
	desc     PanelDescriptor
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		desc: PanelDescriptor{
			ID:    "stats",
			Title: "Stats",
			Width: width,
			Sections: []SectionDescriptor{
				{
					ID:    "automaton",
					Title: "Automaton",
					Fields: []FieldDescriptor{
						{ID: "alive", Label: "Alive", Widget: WidgetText, TextGetter: func(d any) string {
							s := d.(StatsData)
							return fmt.Sprintf("%d / %d", s.Alive, s.Cells)
						}},
						{ID: "alive_frac", Label: "Coverage", Widget: WidgetBar, Getter: func(d any) float32 {
							s := d.(StatsData)
							if s.Cells == 0 {
								return 0
							}
							return float32(s.Alive) / float32(s.Cells)
						}},
						{ID: "alpha_mean", Label: "Mean alpha", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 {
							return float32(d.(StatsData).AlphaMean)
						}},
					},
				},
				{
					ID:      "perf",
					Title:   "Performance",
					Visible: hasPerf,
					Fields: []FieldDescriptor{
						{ID: "steps_per_sec", Label: "Steps/s", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float32 {
							return float32(d.(StatsData).StepsPerSec)
						}},
						{ID: "step_ms", Label: "Step ms", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 {
							return float32(d.(StatsData).StepMS)
						}},
						{ID: "transition_pct", Label: "Model %", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 {
							return float32(d.(StatsData).TransitionPc)
						}},
						{ID: "delay", Label: "Delay", Widget: WidgetText, TextGetter: func(d any) string {
							return fmt.Sprintf("%d ms", d.(StatsData).DelayMS)
						}},
					},
				},
			},
		},
	}
}

func hasPerf(d any) bool {
	return d.(StatsData).StepsPerSec > 0
}

// Draw renders the panel anchored to the top-right corner.
func (p *StatsPanel) Draw(screenWidth int32, data StatsData) {
	p.renderer.DrawPanelDescriptor(screenWidth-p.desc.Width-10, 10, p.desc, data)
}

package visualization

import (
	"fmt"
	"image/color"

	"herd-sim/internal/common"
	"herd-sim/internal/simulation"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	agentRadiusOnScreen = 3.0 // pixels
	headingLength       = 1.5 // world units
)

var (
	backgroundColor = color.RGBA{230, 230, 230, 255}
	fenceColor      = color.RGBA{90, 90, 90, 255}
	headingColor    = color.RGBA{40, 40, 40, 160}
	comColor        = color.RGBA{200, 0, 200, 200}
	stateColors     = map[simulation.State]color.RGBA{
		simulation.Idle:    {120, 160, 120, 255},
		simulation.Walking: {0, 90, 255, 255},
		simulation.Running: {230, 40, 30, 255},
	}
)

// Renderer implements ebiten.Game. Every Update advances the simulation by one
// frame, so the driving clock is ebiten's tick rate.
type Renderer struct {
	sim    *simulation.Simulation
	camera Projector
	logger *zap.Logger

	paused bool

	screenWidth  int
	screenHeight int
}

// NewRenderer creates a new Ebiten renderer.
func NewRenderer(sim *simulation.Simulation, camera Projector, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		sim:    sim,
		camera: camera,
		logger: logger.Named("viewer"),
	}
}

// Update is called every tick. Space pauses, R respawns the herd.
func (r *Renderer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		r.paused = !r.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := r.sim.Reset(r.sim.Config()); err != nil {
			return fmt.Errorf("resetting herd: %w", err)
		}
		r.logger.Info("Herd reset from viewer.", zap.String("run_id", r.sim.RunID().String()))
	}

	if !r.paused {
		if err := r.sim.Step(1 / float64(ebiten.TPS())); err != nil {
			return err
		}
	}
	r.camera.Follow(r.sim.Metrics())
	return nil
}

// Draw is called every frame to render the herd.
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	r.camera.SetScreen(r.screenWidth, r.screenHeight)

	r.drawFences(screen)
	scale := r.camera.Scale()
	for _, a := range r.sim.Snapshot() {
		x, y := r.camera.WorldToScreen(a.Position)
		hx, hy := r.camera.WorldToScreen(r2.Add(a.Position, r2.Scale(headingLength, a.HeadingVector())))
		vector.StrokeLine(screen, x, y, hx, hy, 1, headingColor, true)
		vector.DrawFilledCircle(screen, x, y, float32(max(agentRadiusOnScreen, 0.4*scale)), stateColors[a.State], true)
	}

	m := r.sim.Metrics()
	if m.HasFlowField {
		cx, cy := r.camera.WorldToScreen(m.COM)
		vector.StrokeCircle(screen, cx, cy, 6, 2, comColor, true)
	}

	r.drawDebugInfo(screen, m)
}

func (r *Renderer) drawFences(screen *ebiten.Image) {
	size := r.sim.Config().Simulation.FieldSize
	x0, y0 := r.camera.WorldToScreen(common.Vector{X: 0, Y: size})
	x1, y1 := r.camera.WorldToScreen(common.Vector{X: size, Y: 0})
	vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 2, fenceColor, true)
}

func (r *Renderer) drawDebugInfo(screen *ebiten.Image, m simulation.HerdMetrics) {
	msg := fmt.Sprintf("Model: %s  Run: %s\n", r.sim.ModelName(), r.sim.RunID().String()[:8])
	msg += fmt.Sprintf("FPS: %.1f, TPS: %.1f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
	msg += fmt.Sprintf("Time: %.1f  Step: %d\n", m.Time, m.Step)
	msg += fmt.Sprintf("Idle: %d  Walking: %d  Running: %d\n", m.Idle, m.Walking, m.Running)
	msg += fmt.Sprintf("Hull area: %.1f  Polarization: %.2f\n", m.HullArea, m.Polarization)
	if m.HasFlowField {
		msg += fmt.Sprintf("Cell area: %.1f  COM: %s\n", m.CellArea, common.String(m.COM))
	}
	if r.paused {
		msg += "PAUSED (space)\n"
	}
	ebitenutil.DebugPrint(screen, msg)
}

// Layout is called when the window size changes.
func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	r.screenWidth = outsideWidth
	r.screenHeight = outsideHeight
	return r.screenWidth, r.screenHeight
}

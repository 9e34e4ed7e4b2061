package overlay

import (
	"unicode/utf8"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/ports"
)

const (
	textHeight    = 80
	cornerRadius  = 5
	baselineInset = 5
)

// Renderer draws speech balloons onto an overlay surface.
type Renderer struct {
	holder    ports.SurfaceHolder
	textColor domain.Color
}

func NewRenderer(holder ports.SurfaceHolder) *Renderer {
	return &Renderer{holder: holder, textColor: domain.ColorBlack}
}

// DrawBalloon replaces the overlay with one balloon. It is a no-op while the
// surface does not exist.
func (r *Renderer) DrawBalloon(left, top float64, color domain.Color, text string) {
	canvas, ok := r.holder.LockCanvas()
	if !ok {
		return
	}
	defer r.holder.UnlockCanvasAndPost(canvas)

	width := float64(textHeight * utf8.RuneCountInString(text))
	canvas.Clear()
	canvas.FillRoundRect(left, top, left+width, top+textHeight, cornerRadius, color)
	canvas.DrawText(text, left, top+textHeight-baselineInset, textHeight, r.textColor)
}

package pitch

import (
	"fmt"
	"io"
	"strings"

	"bowlbot/game"

	"github.com/muesli/termenv"
)

// Render draws the pitch as text. Home players are drawn as H, away players
// as A, lower case when knocked down; the ball is an o, or an @ on its carrier.
func (gs *GameState) Render(w io.Writer, profile termenv.Profile) error {
	b := &gs.board
	home := profile.Color("4")
	away := profile.Color("1")
	ball := profile.Color("3")

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d - %d %s  turn %d/%d  %s\n",
		Home, b.score[0], b.score[1], Away, b.turn, 2*gs.cfg.TurnsPerTeam, b.phase)

	for y := 1; y <= gs.cfg.Height; y++ {
		for x := 1; x <= gs.cfg.Width; x++ {
			sq := game.Square{X: x, Y: y}
			if x == gs.cfg.Width/2+1 {
				sb.WriteString("|")
			}
			i := b.playerAt(sq)
			switch {
			case i >= 0:
				p := b.players[i]
				glyph, color := "H", home
				if p.team == 1 {
					glyph, color = "A", away
				}
				if p.down {
					glyph = strings.ToLower(glyph)
				}
				if b.carrier == i {
					glyph = "@"
				}
				sb.WriteString(profile.String(glyph).Foreground(color).Bold().String())
			case b.ball == sq:
				sb.WriteString(profile.String("o").Foreground(ball).String())
			case x == 1 || x == gs.cfg.Width:
				sb.WriteString(":")
			default:
				sb.WriteString(".")
			}
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

package pitch

import (
	"fmt"

	"bowlbot/game"
)

const (
	dodgeTarget  = 3
	pickupTarget = 3
	catchTarget  = 3
)

var directions = [8]game.Square{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// ActionChoices returns the legal action categories for the current phase.
func (gs *GameState) ActionChoices() []game.ActionChoice {
	b := &gs.board
	switch b.phase {
	case StartPhase:
		return []game.ActionChoice{{Type: game.StartGame}}
	case CoinTossPhase:
		return []game.ActionChoice{{Type: game.Heads}, {Type: game.Tails}}
	case KickOrReceivePhase:
		return []game.ActionChoice{{Type: game.Kick}, {Type: game.Receive}}
	case SetupPhase:
		return gs.setupChoices()
	case PlaceBallPhase:
		return []game.ActionChoice{{Type: game.PlaceBall, Positions: gs.halfSquares(1 - b.kicking)}}
	case TurnPhase:
		return gs.turnChoices()
	case PlayerActionPhase:
		return gs.playerActionChoices()
	case RerollPhase:
		return []game.ActionChoice{{Type: game.UseReroll}, {Type: game.DontUseReroll}}
	default: // Forced phases and the end of the game
		return nil
	}
}

func (gs *GameState) setupChoices() []game.ActionChoice {
	b := &gs.board
	var team []game.PlayerID
	allPlaced := true
	for _, p := range b.players {
		if p.team != b.setupTeam {
			continue
		}
		team = append(team, p.id)
		if !p.onPitch() {
			allPlaced = false
		}
	}

	var free []game.Square
	for _, sq := range gs.halfSquares(b.setupTeam) {
		if b.playerAt(sq) < 0 {
			free = append(free, sq)
		}
	}

	choices := []game.ActionChoice{}
	if len(free) > 0 {
		choices = append(choices, game.ActionChoice{Type: game.PlacePlayer, Players: team, Positions: free})
	}
	choices = append(choices,
		game.ActionChoice{Type: game.SetupFormationSpread},
		game.ActionChoice{Type: game.SetupFormationWedge},
	)
	if allPlaced {
		choices = append(choices, game.ActionChoice{Type: game.EndSetup})
	}
	return choices
}

func (gs *GameState) turnChoices() []game.ActionChoice {
	b := &gs.board
	var movers, blockers []game.PlayerID
	for i, p := range b.players {
		if p.team != b.active || !p.onPitch() || p.down || p.used {
			continue
		}
		movers = append(movers, p.id)
		if len(b.adjacentOpponents(i)) > 0 {
			blockers = append(blockers, p.id)
		}
	}

	if len(movers) == 0 {
		return nil // Nobody left to act, Advance hands the turn over
	}

	choices := []game.ActionChoice{{Type: game.StartMove, Players: movers}}
	if len(blockers) > 0 {
		choices = append(choices, game.ActionChoice{Type: game.StartBlock, Players: blockers})
	}
	// A team ends its turn only after activating at least one player
	if b.acted {
		choices = append(choices, game.ActionChoice{Type: game.EndTurn})
	}
	return choices
}

func (gs *GameState) playerActionChoices() []game.ActionChoice {
	b := &gs.board
	choices := []game.ActionChoice{}
	switch b.activeKind {
	case game.StartMove:
		if targets := gs.moveTargets(b.activePlayer); len(targets) > 0 {
			choices = append(choices, game.ActionChoice{Type: game.Move, Positions: targets})
		}
	case game.StartBlock:
		var targets []game.Square
		for _, j := range b.adjacentOpponents(b.activePlayer) {
			targets = append(targets, b.players[j].pos)
		}
		if len(targets) > 0 {
			choices = append(choices, game.ActionChoice{Type: game.Block, Positions: targets})
		}
	}
	return append(choices, game.ActionChoice{Type: game.EndPlayerTurn})
}

// Step applies one decision of the acting team.
func (gs *GameState) Step(action game.Action) error {
	if gs.IsTerminal() {
		return game.ErrGameOver
	}
	if !game.IsLegal(gs.ActionChoices(), action) {
		return fmt.Errorf("%w: %s during %s", game.ErrIllegalAction, action, gs.board.phase)
	}
	gs.dirty = true

	b := &gs.board
	switch action.Type {
	case game.StartGame:
		b.phase = CoinTossPhase
	case game.Heads, game.Tails:
		heads := gs.roll()%2 == 0
		if heads == (action.Type == game.Heads) {
			b.tossWinner = 1 // The away team calls the toss
		} else {
			b.tossWinner = 0
		}
		b.phase = KickOrReceivePhase
	case game.Kick:
		gs.beginDrive(b.tossWinner)
	case game.Receive:
		gs.beginDrive(1 - b.tossWinner)
	case game.PlacePlayer:
		b.players[b.playerIndex(action.Player)].pos = action.Position
	case game.SetupFormationSpread, game.SetupFormationWedge:
		gs.applyFormation(action.Type)
	case game.EndSetup:
		if b.setupTeam == b.kicking {
			b.setupTeam = 1 - b.kicking
		} else {
			b.phase = PlaceBallPhase
		}
	case game.PlaceBall:
		b.placedBall = action.Position
		b.phase = KickoffPhase
	case game.StartMove, game.StartBlock:
		i := b.playerIndex(action.Player)
		b.players[i].used = true
		b.players[i].movesLeft = gs.cfg.MovementAllow
		b.activePlayer = i
		b.activeKind = action.Type
		b.acted = true
		b.phase = PlayerActionPhase
	case game.Move:
		gs.move(action.Position)
	case game.Block:
		gs.block(action.Position)
	case game.EndPlayerTurn:
		b.endActivation()
	case game.EndTurn:
		gs.endTurn()
	case game.UseReroll:
		b.rerolls[b.active]--
		if gs.roll() >= b.pending.need {
			gs.rollSucceeded()
		} else {
			gs.rollFailed()
		}
	case game.DontUseReroll:
		gs.rollFailed()
	default:
		return fmt.Errorf("%w: unsupported action type %s", game.ErrIllegalAction, action.Type)
	}
	return nil
}

// Advance resolves a forced phase: kickoff, turnover, touchdown or the
// hand-over of a turn in which nobody is left to act.
func (gs *GameState) Advance() error {
	b := &gs.board
	if gs.IsTerminal() {
		return game.ErrGameOver
	}
	if len(gs.ActionChoices()) > 0 {
		return fmt.Errorf("%w: %s awaits a decision", game.ErrNoProgress, b.phase)
	}
	gs.dirty = true

	switch b.phase {
	case KickoffPhase:
		gs.resolveKickoff()
	case TurnoverPhase, TurnPhase:
		gs.endTurn()
	case TouchdownPhase:
		b.score[b.active]++
		scorer := b.active
		if gs.turnsExhausted() {
			b.phase = EndPhase
		} else {
			gs.beginDrive(scorer)
		}
	}
	return nil
}

// beginDrive clears the pitch and starts the setup with the kicking team.
func (gs *GameState) beginDrive(kicking int) {
	b := &gs.board
	for i := range b.players {
		b.players[i].pos = game.NoSquare
		b.players[i].down = false
		b.players[i].used = false
	}
	b.ball = game.NoSquare
	b.carrier = -1
	b.activePlayer = -1
	b.kicking = kicking
	b.setupTeam = kicking
	b.phase = SetupPhase
}

func (gs *GameState) applyFormation(formation game.ActionType) {
	b := &gs.board
	t := b.setupTeam
	for i := range b.players {
		if b.players[i].team == t {
			b.players[i].pos = game.NoSquare
		}
	}

	scrimmage, back := gs.cfg.Width/2, -1
	if t == 1 {
		scrimmage, back = gs.cfg.Width/2+1, 1
	}
	mid := (gs.cfg.Height + 1) / 2

	k := 0
	for i := range b.players {
		if b.players[i].team != t {
			continue
		}
		var sq game.Square
		if formation == game.SetupFormationSpread {
			n := gs.cfg.PlayersPerTeam
			y := mid
			if n > 1 {
				y = 1 + k*(gs.cfg.Height-1)/(n-1)
			}
			sq = game.Square{X: scrimmage, Y: y}
		} else {
			depth := (k + 1) / 2
			offset := depth
			if k%2 == 1 {
				offset = -depth
			}
			sq = game.Square{X: scrimmage + back*depth, Y: clamp(mid+offset, 1, gs.cfg.Height)}
		}
		b.players[i].pos = gs.firstFree(sq, back)
		k++
	}
}

// firstFree walks from sq towards the team's own end zone until it finds an
// empty square on the team's half.
func (gs *GameState) firstFree(sq game.Square, step int) game.Square {
	b := &gs.board
	t := b.setupTeam
	for probe := sq; gs.onHalf(probe, t); probe.X += step {
		if b.playerAt(probe) < 0 {
			return probe
		}
	}
	for _, probe := range gs.halfSquares(t) {
		if b.playerAt(probe) < 0 {
			return probe
		}
	}
	panic("no free square for formation")
}

func (gs *GameState) resolveKickoff() {
	b := &gs.board
	receiving := 1 - b.kicking

	dir := directions[gs.pick(len(directions))]
	distance := (gs.roll() + 1) / 2
	land := game.Square{X: b.placedBall.X + dir.X*distance, Y: b.placedBall.Y + dir.Y*distance}

	if !gs.onHalf(land, receiving) {
		// Touchback: the first standing receiver gets the ball
		for i, p := range b.players {
			if p.team == receiving && p.onPitch() && !p.down {
				b.carrier = i
				b.ball = game.NoSquare
				break
			}
		}
		if b.carrier < 0 {
			b.ball = gs.halfSquares(receiving)[0]
		}
	} else if i := b.playerAt(land); i >= 0 {
		if gs.roll() >= catchTarget {
			b.carrier = i
			b.ball = game.NoSquare
		} else {
			gs.bounce(land)
		}
	} else {
		b.ball = land
	}

	b.active = b.kicking
	gs.endTurn()
}

// move runs the active player to a reachable square. Leaving an opposing
// tackle zone takes a dodge roll before the first step.
func (gs *GameState) move(to game.Square) {
	b := &gs.board
	mover := &b.players[b.activePlayer]
	cost := gs.reachable(b.activePlayer)[to]

	if len(b.adjacentOpponents(b.activePlayer)) > 0 {
		if gs.roll() < dodgeTarget {
			gs.failRoll(dodgeRoll, to, dodgeTarget, cost)
			return
		}
	}
	mover.pos = to
	mover.movesLeft -= cost
	gs.afterMove()
}

// afterMove handles ball pickup, touchdowns and the end of the activation.
func (gs *GameState) afterMove() {
	b := &gs.board
	mover := &b.players[b.activePlayer]

	if b.carrier < 0 && b.ball == mover.pos {
		if gs.roll() < pickupTarget {
			gs.failRoll(pickupRoll, mover.pos, pickupTarget, 0)
			return
		}
		b.carrier = b.activePlayer
		b.ball = game.NoSquare
	}

	if b.carrier == b.activePlayer && gs.inScoringZone(mover.pos, mover.team) {
		b.phase = TouchdownPhase
		return
	}
	if mover.movesLeft == 0 {
		b.endActivation()
	}
}

// failRoll offers a reroll when the team has one left, otherwise applies the failure.
func (gs *GameState) failRoll(kind rollKind, target game.Square, need, cost int) {
	b := &gs.board
	b.pending = pendingRoll{kind: kind, target: target, need: need, cost: cost}
	if b.rerolls[b.active] > 0 {
		b.phase = RerollPhase
		return
	}
	gs.rollFailed()
}

func (gs *GameState) rollSucceeded() {
	b := &gs.board
	mover := &b.players[b.activePlayer]
	b.phase = PlayerActionPhase
	switch b.pending.kind {
	case dodgeRoll:
		mover.pos = b.pending.target
		mover.movesLeft -= b.pending.cost
		gs.afterMove()
	case pickupRoll:
		b.carrier = b.activePlayer
		b.ball = game.NoSquare
		if gs.inScoringZone(mover.pos, mover.team) {
			b.phase = TouchdownPhase
		} else if mover.movesLeft == 0 {
			b.endActivation()
		}
	}
}

func (gs *GameState) rollFailed() {
	b := &gs.board
	mover := &b.players[b.activePlayer]
	switch b.pending.kind {
	case dodgeRoll: // Falls over before leaving the square
		gs.knockDown(b.activePlayer)
	case pickupRoll:
		gs.bounce(mover.pos)
	}
	b.phase = TurnoverPhase
}

func (gs *GameState) block(target game.Square) {
	b := &gs.board
	attacker := b.activePlayer
	defender := b.playerAt(target)

	switch die := gs.roll(); {
	case die <= 2: // Attacker down
		gs.knockDown(attacker)
		b.phase = TurnoverPhase
		return
	case die <= 4: // Push
		from := b.players[attacker].pos
		pushed := game.Square{X: 2*target.X - from.X, Y: 2*target.Y - from.Y}
		if gs.onPitch(pushed) && b.playerAt(pushed) < 0 {
			b.players[defender].pos = pushed
			if b.ball == pushed && b.carrier < 0 {
				gs.bounce(pushed)
			}
		}
	default: // Defender down
		gs.knockDown(defender)
	}
	b.endActivation()
}

func (gs *GameState) knockDown(i int) {
	b := &gs.board
	b.players[i].down = true
	if b.carrier == i {
		b.carrier = -1
		gs.bounce(b.players[i].pos)
	}
}

// bounce scatters the ball one square from its origin onto a random empty neighbour.
func (gs *GameState) bounce(from game.Square) {
	b := &gs.board
	candidates := gs.freeNeighbours(from)
	if len(candidates) == 0 {
		b.ball = from
		return
	}
	b.ball = candidates[gs.pick(len(candidates))]
}

func (gs *GameState) endTurn() {
	b := &gs.board
	b.activePlayer = -1
	b.acted = false
	if gs.turnsExhausted() {
		b.phase = EndPhase
		return
	}
	b.active = 1 - b.active
	b.turn++
	for i := range b.players {
		p := &b.players[i]
		if p.team != b.active {
			continue
		}
		// Players knocked down in the previous turn spend this one getting up
		p.used = p.down
		p.down = false
	}
	b.phase = TurnPhase
}

func (gs *GameState) turnsExhausted() bool {
	return gs.board.turn >= 2*gs.cfg.TurnsPerTeam
}

func (b *board) endActivation() {
	b.activePlayer = -1
	b.phase = TurnPhase
}

func (b *board) playerAt(sq game.Square) int {
	if sq == game.NoSquare {
		return -1
	}
	for i, p := range b.players {
		if p.pos == sq {
			return i
		}
	}
	return -1
}

func (b *board) playerIndex(id game.PlayerID) int {
	for i, p := range b.players {
		if p.id == id {
			return i
		}
	}
	panic(fmt.Sprintf("unknown player %s", id))
}

// adjacentOpponents returns the standing opponents next to player i.
func (b *board) adjacentOpponents(i int) []int {
	p := b.players[i]
	var out []int
	for j, q := range b.players {
		if q.team != p.team && q.onPitch() && !q.down && p.pos.Distance(q.pos) == 1 {
			out = append(out, j)
		}
	}
	return out
}

func (gs *GameState) freeNeighbours(sq game.Square) []game.Square {
	var out []game.Square
	for _, d := range directions {
		n := game.Square{X: sq.X + d.X, Y: sq.Y + d.Y}
		if gs.onPitch(n) && gs.board.playerAt(n) < 0 {
			out = append(out, n)
		}
	}
	return out
}

// reachable maps every empty square player i can run to with its remaining
// movement to the number of steps it takes.
func (gs *GameState) reachable(i int) map[game.Square]int {
	p := gs.board.players[i]
	steps := map[game.Square]int{p.pos: 0}
	frontier := []game.Square{p.pos}
	for d := 1; d <= p.movesLeft && len(frontier) > 0; d++ {
		var next []game.Square
		for _, sq := range frontier {
			for _, n := range gs.freeNeighbours(sq) {
				if _, seen := steps[n]; !seen {
					steps[n] = d
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	delete(steps, p.pos)
	return steps
}

// moveTargets lists the reachable squares of player i column by column.
func (gs *GameState) moveTargets(i int) []game.Square {
	steps := gs.reachable(i)
	var out []game.Square
	for x := 1; x <= gs.cfg.Width; x++ {
		for y := 1; y <= gs.cfg.Height; y++ {
			if _, ok := steps[game.Square{X: x, Y: y}]; ok {
				out = append(out, game.Square{X: x, Y: y})
			}
		}
	}
	return out
}

func (gs *GameState) onPitch(sq game.Square) bool {
	return sq.X >= 1 && sq.X <= gs.cfg.Width && sq.Y >= 1 && sq.Y <= gs.cfg.Height
}

// onHalf reports whether sq lies on the half defended by team t. The home
// team defends the left half and scores in column Width.
func (gs *GameState) onHalf(sq game.Square, t int) bool {
	if !gs.onPitch(sq) {
		return false
	}
	if t == 0 {
		return sq.X <= gs.cfg.Width/2
	}
	return sq.X > gs.cfg.Width/2
}

func (gs *GameState) halfSquares(t int) []game.Square {
	var out []game.Square
	for x := 1; x <= gs.cfg.Width; x++ {
		for y := 1; y <= gs.cfg.Height; y++ {
			if sq := (game.Square{X: x, Y: y}); gs.onHalf(sq, t) {
				out = append(out, sq)
			}
		}
	}
	return out
}

func (gs *GameState) inScoringZone(sq game.Square, t int) bool {
	if t == 0 {
		return sq.X == gs.cfg.Width
	}
	return sq.X == 1
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

package game

// GameSnapshot — сериализуемое состояние игры, которое можно положить в Redis.
// Несёт staged раунд (со скрытым prompt), поэтому уходит только в server-side
// store, никогда клиентам.
type GameSnapshot struct {
	GameID string `json:"gameId"`

	Phase string `json:"phase"`
	Round int    `json:"round"`

	RoundID        string `json:"roundId"`
	PublicResponse string `json:"publicResponse"`
	Tier           int    `json:"tier"`
	RevealedPrompt string `json:"revealedPrompt,omitempty"`
	StagedRound    *Round `json:"stagedRound,omitempty"`

	P1 SeatSnapshot `json:"p1"`
	P2 SeatSnapshot `json:"p2"`

	RoundWinnerID string `json:"roundWinnerId,omitempty"`
	WinnerID      string `json:"winnerId,omitempty"`
	Draw          bool   `json:"draw,omitempty"`

	History []GuessRecord `json:"history"`
}

type SeatSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	Score       int    `json:"score"`
	LockedRound int    `json:"lockedRound"`
}

func (g *Game) snapshotLocked() GameSnapshot {
	return GameSnapshot{
		GameID: g.id,

		Phase: g.phase,
		Round: g.round,

		RoundID:        g.roundID,
		PublicResponse: g.publicResponse,
		Tier:           g.tier,
		RevealedPrompt: g.revealedPrompt,
		StagedRound:    g.stagedRound,

		P1: seatSnapshot(g.p1),
		P2: seatSnapshot(g.p2),

		RoundWinnerID: g.roundWinnerID,
		WinnerID:      g.winnerID,
		Draw:          g.draw,

		History: append([]GuessRecord(nil), g.history...),
	}
}

func seatSnapshot(p *seat) SeatSnapshot {
	return SeatSnapshot{
		ID:          p.id,
		Name:        p.name,
		Country:     p.country,
		Score:       p.score,
		LockedRound: p.lockedRound,
	}
}

func (g *Game) restoreLocked(s GameSnapshot) {
	g.phase = s.Phase
	g.round = s.Round

	g.roundID = s.RoundID
	g.publicResponse = s.PublicResponse
	g.tier = s.Tier
	g.revealedPrompt = s.RevealedPrompt
	g.stagedRound = s.StagedRound

	restoreSeat(g.p1, s.P1)
	restoreSeat(g.p2, s.P2)

	g.roundWinnerID = s.RoundWinnerID
	g.winnerID = s.WinnerID
	g.draw = s.Draw

	g.history = append([]GuessRecord(nil), s.History...)
}

func restoreSeat(p *seat, s SeatSnapshot) {
	p.id = s.ID
	p.name = s.Name
	p.country = s.Country
	p.score = s.Score
	p.lockedRound = s.LockedRound
}

// Snapshot locks and returns the serializable state.
func (g *Game) Snapshot() GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

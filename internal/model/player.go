package model

// Player is a participant identified by the id the client sends with each
// request.
type Player struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
}

// MatchFoundEvent is pushed to both players when matchmaking pairs them.
type MatchFoundEvent struct {
	GameID string `json:"gameId"`
	Color  Color  `json:"color"`
}

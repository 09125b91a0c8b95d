package game

const (
	EventBoardUpdate = "board_update"
	EventClockUpdate = "clock_update"
)

type BoardUpdate struct {
	MatchID       string  `json:"match_id"`
	Board         [][]int `json:"board"`
	CurrentPlayer int     `json:"current_player"`
	LastMove      *Move   `json:"last_move"`
	GameOver      bool    `json:"game_over"`
	ResultMessage string  `json:"result_message"`
}

type ClockUpdate struct {
	MatchID string `json:"match_id"`
	Player  int    `json:"player"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
}

// Envelope is what the realtime transport writes to subscribers.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ClientMessage is what subscribers may send back. Only "clock" is handled.
type ClientMessage struct {
	Type    string `json:"type"`
	Player  int    `json:"player"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
}

package game

import (
	"time"

	"agladiator/internal/domain/board"
	"agladiator/internal/statuses"
)

// Player numbers as seen by agents and clients: 1 plays black, 2 plays white.
const (
	Player1 = 1
	Player2 = 2
)

func ColorOf(player int) board.Color {
	switch player {
	case Player1:
		return board.Black
	case Player2:
		return board.White
	}
	return board.Empty
}

type Winner string

const (
	WinnerBlack Winner = "black"
	WinnerWhite Winner = "white"
	WinnerDraw  Winner = "draw"
)

type Clock struct {
	Minutes int `json:"minutes" bson:"minutes"`
	Seconds int `json:"seconds" bson:"seconds"`
}

type CreateMatchRequest struct {
	MatchID   string `json:"match_id,omitempty"`
	Player1ID string `json:"player1_id"`
	Player2ID string `json:"player2_id"`
	Agent1    string `json:"agent1"`
	Agent2    string `json:"agent2"`
}

type CreateMatchResponse struct {
	MatchID string `json:"match_id"`
}

// State is a point-in-time copy of a session. Board is grid[x][y].
type State struct {
	MatchID       string          `json:"match_id"`
	Player1ID     string          `json:"player1_id"`
	Player2ID     string          `json:"player2_id"`
	Status        statuses.Status `json:"status"`
	Board         [][]int         `json:"board"`
	CurrentPlayer int             `json:"current_player"`
	MoveHistory   []Move          `json:"move_history"`
	GameOver      bool            `json:"game_over"`
	ResultMessage string          `json:"result_message"`
	Clocks        [2]Clock        `json:"clocks"`
}

// Outcome is the summary of a finished match handed to persistence.
type Outcome struct {
	MatchID       string          `json:"match_id" bson:"match_id"`
	Player1ID     string          `json:"player1_id" bson:"player1_id"`
	Player2ID     string          `json:"player2_id" bson:"player2_id"`
	Status        statuses.Status `json:"status" bson:"status"`
	Winner        Winner          `json:"winner" bson:"winner"`
	ForfeitedBy   int             `json:"forfeited_by,omitempty" bson:"forfeited_by,omitempty"`
	ResultMessage string          `json:"result_message" bson:"result_message"`
	Moves         []Move          `json:"moves" bson:"moves"`
	BlackStones   int             `json:"black_stones" bson:"black_stones"`
	WhiteStones   int             `json:"white_stones" bson:"white_stones"`
	SGF           string          `json:"sgf,omitempty" bson:"sgf,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	FinishedAt    time.Time       `json:"finished_at" bson:"finished_at"`
}

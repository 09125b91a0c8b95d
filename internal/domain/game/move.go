package game

import "agladiator/internal/domain/board"

// Move is one accepted ply. Seq starts at 1.
type Move struct {
	Position board.Position   `json:"position" bson:"position"`
	Player   int              `json:"player" bson:"player"`
	Captured []board.Position `json:"captured" bson:"captured"`
	Seq      int              `json:"seq" bson:"seq"`
}

type PlyResponse struct {
	Position      board.Position `json:"position"`
	Color         string         `json:"color"`
	Captured      int            `json:"captured"`
	GameOver      bool           `json:"game_over"`
	ResultMessage string         `json:"result_message,omitempty"`
}

type PlyErrorResponse struct {
	Error         string `json:"error"`
	GameOver      bool   `json:"game_over"`
	ResultMessage string `json:"result_message"`
}

type ClockRequest struct {
	Player  int `json:"player"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type ForfeitRequest struct {
	Player int `json:"player"`
}

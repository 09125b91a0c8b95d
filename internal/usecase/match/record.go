package match

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agladiator/internal/domain/board"
	"agladiator/internal/domain/game"
	"agladiator/internal/domain/sgf"
)

// rootOrder fixes the order root properties are written in; anything else
// follows in map order.
var rootOrder = []string{"FF", "GM", "SZ", "PB", "PW", "DT", "RE", "RU", "C", "B", "W"}

type recordHeader struct {
	MatchID   string
	Player1ID string
	Player2ID string
	CreatedAt time.Time
	Result    string
}

func prepareRecord(h recordHeader, moves []game.Move) sgf.SGF {
	root := sgf.Node{
		Properties: map[string][]string{
			"FF": {"4"},
			"GM": {"1"},
			"SZ": {strconv.Itoa(board.Size)},
			"PB": {h.Player1ID},
			"PW": {h.Player2ID},
			"DT": {h.CreatedAt.Format("2006-01-02")},
			"RU": {"Japanese"},
			"C":  {"match " + h.MatchID},
		},
	}
	if h.Result != "" {
		root.Properties["RE"] = []string{h.Result}
	}

	tree := &sgf.GameTree{Nodes: []sgf.Node{root}}
	addMovesToRecord(tree, moves)
	return sgf.SGF{Root: tree}
}

func addMovesToRecord(tree *sgf.GameTree, moves []game.Move) {
	for _, move := range moves {
		tree.Nodes = append(tree.Nodes, sgf.Node{
			Properties: map[string][]string{
				game.ColorOf(move.Player).SGF(): {move.Position.SGF()},
			},
		})
	}
}

func serializeRecord(s *sgf.SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *sgf.GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range rootOrder {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				writeProperty(builder, key, values)
			}
		}
		for key, values := range node.Properties {
			if !used[key] {
				writeProperty(builder, key, values)
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func writeProperty(builder *strings.Builder, key string, values []string) {
	builder.WriteString(key)
	for _, v := range values {
		builder.WriteString("[")
		builder.WriteString(escapeValue(v))
		builder.WriteString("]")
	}
}

func escapeValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, "]", `\]`)
}

// appendMoveToRecord adds one move node before the closing parenthesis.
func appendMoveToRecord(sgfText string, move game.Move) string {
	sgfText = strings.TrimSuffix(sgfText, ")")
	return sgfText + fmt.Sprintf(";%s[%s])", game.ColorOf(move.Player).SGF(), move.Position.SGF())
}

// recordResult renders the stone-count result in SGF RE syntax.
func recordResult(black, white int) string {
	switch {
	case black > white:
		return fmt.Sprintf("B+%d", black-white)
	case white > black:
		return fmt.Sprintf("W+%d", white-black)
	}
	return "0"
}

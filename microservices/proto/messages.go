package proto

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

func NewMoveRequest(grid [][]int, player int, requestID string) *structpb.Struct {
	columns := make([]*structpb.Value, len(grid))
	for x, column := range grid {
		cells := make([]*structpb.Value, len(column))
		for y, v := range column {
			cells[y] = structpb.NewNumberValue(float64(v))
		}
		columns[x] = structpb.NewListValue(&structpb.ListValue{Values: cells})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"board":      structpb.NewListValue(&structpb.ListValue{Values: columns}),
		"player":     structpb.NewNumberValue(float64(player)),
		"request_id": structpb.NewStringValue(requestID),
	}}
}

func ParseMoveRequest(in *structpb.Struct) (grid [][]int, player int, err error) {
	fields := in.GetFields()
	columns := fields["board"].GetListValue().GetValues()
	if len(columns) == 0 {
		return nil, 0, fmt.Errorf("request has no board")
	}
	grid = make([][]int, len(columns))
	for x, column := range columns {
		cells := column.GetListValue().GetValues()
		grid[x] = make([]int, len(cells))
		for y, cell := range cells {
			n, ok := integer(cell)
			if !ok {
				return nil, 0, fmt.Errorf("board cell (%d,%d) is not an integer", x, y)
			}
			grid[x][y] = n
		}
	}
	player, ok := integer(fields["player"])
	if !ok {
		return nil, 0, fmt.Errorf("request has no player")
	}
	return grid, player, nil
}

// NewMoveResponse encodes move; a nil move is sent as null.
func NewMoveResponse(move []int) *structpb.Struct {
	value := structpb.NewNullValue()
	if move != nil {
		coords := make([]*structpb.Value, len(move))
		for i, c := range move {
			coords[i] = structpb.NewNumberValue(float64(c))
		}
		value = structpb.NewListValue(&structpb.ListValue{Values: coords})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"move": value}}
}

// ParseMoveResponse keeps the shape the agent sent so the caller can judge
// it. Anything that is not a list of integers comes back as nil.
func ParseMoveResponse(out *structpb.Struct) []int {
	list := out.GetFields()["move"].GetListValue()
	if list == nil {
		return nil
	}
	move := make([]int, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		n, ok := integer(v)
		if !ok {
			return nil
		}
		move = append(move, n)
	}
	return move
}

func NewCapabilities(name string) *structpb.Struct {
	methods := &structpb.ListValue{Values: []*structpb.Value{
		structpb.NewStringValue(GetMoveCapability),
	}}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"name":    structpb.NewStringValue(name),
		"methods": structpb.NewListValue(methods),
	}}
}

func HasCapability(caps *structpb.Struct, method string) bool {
	for _, m := range caps.GetFields()["methods"].GetListValue().GetValues() {
		if m.GetStringValue() == method {
			return true
		}
	}
	return false
}

func integer(v *structpb.Value) (int, bool) {
	if v == nil {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, false
	}
	if n.NumberValue < math.MinInt32 || n.NumberValue > math.MaxInt32 {
		return 0, false
	}
	return int(n.NumberValue), true
}

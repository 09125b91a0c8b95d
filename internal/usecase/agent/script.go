package agent

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptEntryPoint is the function an agent source file must define, as
//
//	func GetMove(board [][]int, player int) []int
//
// or with a trailing error result.
const ScriptEntryPoint = "GetMove"

type scriptAgent struct {
	getMove func(grid [][]int, player int) ([]int, error)
}

func (s *scriptAgent) GetMove(_ context.Context, grid [][]int, player int) ([]int, error) {
	return s.getMove(grid, player)
}

// LoadScript interprets the Go source at path and checks that it exposes
// GetMove with a supported signature.
func LoadScript(path string) (Agent, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent source: %w", err)
	}
	return CompileScript(path, string(src))
}

func CompileScript(name, src string) (Agent, error) {
	file, err := parser.ParseFile(token.NewFileSet(), name, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, fmt.Errorf("parse agent source: %w", err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("evaluate agent source: %w", err)
	}

	v, err := i.Eval(file.Name.Name + "." + ScriptEntryPoint)
	if err != nil {
		return nil, fmt.Errorf("agent does not define %s: %w", ScriptEntryPoint, err)
	}

	switch fn := v.Interface().(type) {
	case func([][]int, int) []int:
		return &scriptAgent{getMove: func(grid [][]int, player int) ([]int, error) {
			return fn(grid, player), nil
		}}, nil
	case func([][]int, int) ([]int, error):
		return &scriptAgent{getMove: fn}, nil
	default:
		return nil, fmt.Errorf("%s has signature %T, want func([][]int, int) []int", ScriptEntryPoint, fn)
	}
}

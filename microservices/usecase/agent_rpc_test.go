package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"agladiator/internal/domain/board"
	"agladiator/internal/usecase/agent"
	agentProto "agladiator/microservices/proto"
)

func TestGetMoveForwardsBoardAndPlayer(t *testing.T) {
	var gotPlayer int
	var gotCell int
	uc := NewAgentUseCase("probe", agent.Func(func(ctx context.Context, grid [][]int, player int) ([]int, error) {
		gotPlayer = player
		gotCell = grid[3][4]
		return []int{7, 8}, nil
	}), zaptest.NewLogger(t).Sugar())

	var b board.Board
	b.Apply(board.Position{X: 3, Y: 4}, board.White)

	resp, err := uc.GetMove(context.Background(), agentProto.NewMoveRequest(b.Grid(), 1, "r"))
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, agentProto.ParseMoveResponse(resp))
	assert.Equal(t, 1, gotPlayer)
	assert.Equal(t, int(board.White), gotCell)
}

func TestGetMoveRejectsBadRequest(t *testing.T) {
	uc := NewAgentUseCase("first", agent.First(), zaptest.NewLogger(t).Sugar())

	_, err := uc.GetMove(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetMoveAgentError(t *testing.T) {
	uc := NewAgentUseCase("broken", agent.Func(func(ctx context.Context, grid [][]int, player int) ([]int, error) {
		return nil, errors.New("out of ideas")
	}), zaptest.NewLogger(t).Sugar())

	var b board.Board
	_, err := uc.GetMove(context.Background(), agentProto.NewMoveRequest(b.Grid(), 2, "r"))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestCapabilitiesListsGetMove(t *testing.T) {
	uc := NewAgentUseCase("first", agent.First(), zaptest.NewLogger(t).Sugar())

	caps, err := uc.Capabilities(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.True(t, agentProto.HasCapability(caps, agentProto.GetMoveCapability))
	assert.Equal(t, "first", caps.GetFields()["name"].GetStringValue())
}

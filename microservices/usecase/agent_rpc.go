package usecase

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"agladiator/internal/usecase/agent"
	agentProto "agladiator/microservices/proto"
)

// AgentUseCase serves one agent over the AgentService contract.
type AgentUseCase struct {
	name  string
	agent agent.Agent
	log   *zap.SugaredLogger
}

func NewAgentUseCase(name string, a agent.Agent, log *zap.SugaredLogger) *AgentUseCase {
	return &AgentUseCase{
		name:  name,
		agent: a,
		log:   log,
	}
}

func (a *AgentUseCase) GetMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	grid, player, err := agentProto.ParseMoveRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	move, err := a.agent.GetMove(ctx, grid, player)
	if err != nil {
		a.log.Errorf("agent %s failed to pick a move: %v", a.name, err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	a.log.Debugw("agent move", "agent", a.name, "player", player, "move", move,
		"request_id", in.GetFields()["request_id"].GetStringValue())
	return agentProto.NewMoveResponse(move), nil
}

func (a *AgentUseCase) Capabilities(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return agentProto.NewCapabilities(a.name), nil
}

package main

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"agladiator/internal/bootstrap"
	"agladiator/internal/domain/board"
	"agladiator/internal/usecase/agent"
	agentProto "agladiator/microservices/proto"
	"agladiator/microservices/usecase"
)

// Serves a single agent (AGENT_SOURCE, script or builtin) over gRPC so the
// match host can run it behind a process boundary.
func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	loader := agent.NewLoader(*cfg, logger)
	handle := loader.Load(context.Background(), cfg.AgentSource)
	if !handle.Available() {
		logger.Fatalf("agent %s is unavailable: %v", cfg.AgentSource, handle.LoadErr())
	}
	defer handle.Close()

	lis, err := net.Listen("tcp", ":"+cfg.AgentGrpcPort)
	if err != nil {
		logger.Fatalf("cant listen port %s: %v", cfg.AgentGrpcPort, err)
	}

	server := grpc.NewServer()
	agentProto.RegisterAgentServiceServer(server, usecase.NewAgentUseCase(cfg.AgentSource, handleAgent{handle}, logger))
	logger.Infof("agent %s serving at :%s", cfg.AgentSource, cfg.AgentGrpcPort)
	if err := server.Serve(lis); err != nil {
		logger.Fatal("agent server stopped", zap.Error(err))
	}
}

// handleAgent routes calls through the handle so the configured move
// timeout and panic recovery apply inside the agent process as well.
type handleAgent struct {
	h *agent.Handle
}

func (a handleAgent) GetMove(ctx context.Context, grid [][]int, player int) ([]int, error) {
	b, err := board.FromGrid(grid)
	if err != nil {
		return nil, err
	}
	return a.h.Move(ctx, b, player)
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}

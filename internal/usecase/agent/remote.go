package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	agentProto "agladiator/microservices/proto"
)

type remoteAgent struct {
	conn   *grpc.ClientConn
	client agentProto.AgentServiceClient
	name   string
}

// DialRemote connects to an agent process and confirms it serves GetMove.
func DialRemote(ctx context.Context, addr string, opts ...grpc.DialOption) (Agent, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient("passthrough:///"+addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial agent %s: %w", addr, err)
	}

	client := agentProto.NewAgentServiceClient(conn)
	caps, err := client.Capabilities(ctx, &emptypb.Empty{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("agent %s capabilities: %w", addr, err)
	}
	if !agentProto.HasCapability(caps, agentProto.GetMoveCapability) {
		conn.Close()
		return nil, fmt.Errorf("agent %s does not serve %s", addr, agentProto.GetMoveCapability)
	}

	return &remoteAgent{
		conn:   conn,
		client: client,
		name:   caps.GetFields()["name"].GetStringValue(),
	}, nil
}

func (r *remoteAgent) GetMove(ctx context.Context, grid [][]int, player int) ([]int, error) {
	resp, err := r.client.GetMove(ctx, agentProto.NewMoveRequest(grid, player, uuid.New().String()))
	if err != nil {
		return nil, err
	}
	return agentProto.ParseMoveResponse(resp), nil
}

func (r *remoteAgent) Close() error {
	return r.conn.Close()
}

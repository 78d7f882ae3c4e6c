// SPDX-License-Identifier: MIT

package foyer

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// fakeFoyerServer answers any method with a canned payload and records what
// it saw on the wire.
type fakeFoyerServer struct {
	mu       sync.Mutex
	payload  []byte
	respErr  error
	method   string
	authzMD  []string
	reqBytes []byte
}

func (f *fakeFoyerServer) handle(_ any, stream grpc.ServerStream) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.method, _ = grpc.MethodFromServerStream(stream)
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		f.authzMD = md.Get("authorization")
	}

	var req rawFrame
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	f.reqBytes = req.data

	if f.respErr != nil {
		return f.respErr
	}
	return stream.SendMsg(&rawFrame{data: f.payload})
}

func startFakeFoyer(t *testing.T, fake *fakeFoyerServer) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rawCodec{}),
		grpc.UnknownServiceHandler(fake.handle),
	)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	client, err := NewInsecure("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("NewInsecure: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestHomeGraphRoundTrip(t *testing.T) {
	fake := &fakeFoyerServer{
		payload: encodeHomeGraph(Device{
			AgentID:       "device-1",
			Name:          "Front Door",
			HardwareModel: "Nest Doorbell",
			Traits:        []string{"action.devices.traits.CameraStream"},
		}),
	}
	client := startFakeFoyer(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	graph, err := client.HomeGraph(ctx, "test-token")
	if err != nil {
		t.Fatalf("HomeGraph: %v", err)
	}
	if len(graph.Devices) != 1 || graph.Devices[0].AgentID != "device-1" {
		t.Fatalf("unexpected graph: %+v", graph)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.method != getHomeGraphMethod {
		t.Errorf("method = %q, want %q", fake.method, getHomeGraphMethod)
	}
	if len(fake.authzMD) != 1 || fake.authzMD[0] != "Bearer test-token" {
		t.Errorf("authorization metadata = %v, want bearer token", fake.authzMD)
	}
	if len(fake.reqBytes) != 0 {
		t.Errorf("request payload = %d bytes, want empty", len(fake.reqBytes))
	}
}

func TestHomeGraphServerError(t *testing.T) {
	fake := &fakeFoyerServer{
		respErr: status.Error(codes.Unauthenticated, "bad token"),
	}
	client := startFakeFoyer(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.HomeGraph(ctx, "expired"); status.Code(err) != codes.Unauthenticated {
		t.Errorf("got %v, want Unauthenticated", err)
	}
}

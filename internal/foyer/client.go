// SPDX-License-Identifier: MIT

package foyer

import (
	"context"
	"crypto/tls"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

const (
	// DefaultTarget is the production Foyer endpoint.
	DefaultTarget = "googlehomefoyer-pa.googleapis.com:443"

	getHomeGraphMethod = "/google.internal.home.foyer.v1.StructuresService/GetHomeGraph"
)

// Client fetches the home graph over gRPC with per-call bearer auth.
type Client struct {
	conn *grpc.ClientConn
}

// New creates a client against the given target ("host:port"). The connection
// is established lazily on first use.
func New(target string) (*Client, error) {
	if target == "" {
		target = DefaultTarget
	}
	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})),
	)
	if err != nil {
		return nil, fmt.Errorf("foyer: create client for %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// NewInsecure creates a client without TLS, for tests against a local server.
func NewInsecure(target string, opts ...grpc.DialOption) (*Client, error) {
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("foyer: create client for %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// HomeGraph requests the device directory using the supplied access token as
// bearer auth.
func (c *Client) HomeGraph(ctx context.Context, accessToken string) (*HomeGraph, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+accessToken)

	// The request message carries no meaningful fields; an empty payload
	// encodes every field at its default.
	req := &rawFrame{}
	res := &rawFrame{}
	if err := c.conn.Invoke(ctx, getHomeGraphMethod, req, res, grpc.ForceCodec(rawCodec{})); err != nil {
		return nil, fmt.Errorf("foyer: get home graph: %w", err)
	}
	return decodeHomeGraph(res.data)
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// rawFrame carries an already-encoded protobuf payload through grpc, so the
// hand-maintained protowire codec in wire.go owns all (de)serialisation.
type rawFrame struct {
	data []byte
}

type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*rawFrame)
	if !ok {
		return nil, fmt.Errorf("foyer: codec asked to marshal %T", v)
	}
	return f.data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*rawFrame)
	if !ok {
		return fmt.Errorf("foyer: codec asked to unmarshal into %T", v)
	}
	f.data = data
	return nil
}

// Name claims the standard proto codec name so the call keeps the default
// grpc content-type; the payload is valid protobuf either way.
func (rawCodec) Name() string { return "proto" }

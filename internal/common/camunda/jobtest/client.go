// Package jobtest provides a worker.JobClient that records the commands a
// handler sends instead of talking to a gateway.
package jobtest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

type Client struct {
	pb.GatewayClient

	mu           sync.Mutex
	completed    []*pb.CompleteJobRequest
	failed       []*pb.FailJobRequest
	thrown       []*pb.ThrowErrorRequest
	completeErrs []error
}

func NewClient() *Client {
	return &Client{}
}

// FailCompletes makes the next len(errs) CompleteJob calls return errs in
// order.
func (c *Client) FailCompletes(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completeErrs = append(c.completeErrs, errs...)
}

func (c *Client) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c, noRetry)
}

func (c *Client) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c, noRetry)
}

func (c *Client) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c, noRetry)
}

func (c *Client) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, in)
	if len(c.completeErrs) > 0 {
		err := c.completeErrs[0]
		c.completeErrs = c.completeErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &pb.CompleteJobResponse{}, nil
}

func (c *Client) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, in)
	return &pb.FailJobResponse{}, nil
}

func (c *Client) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thrown = append(c.thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

// Completed returns every CompleteJob request, including rejected attempts.
func (c *Client) Completed() []*pb.CompleteJobRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), c.completed...)
}

func (c *Client) Failed() []*pb.FailJobRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), c.failed...)
}

func (c *Client) Thrown() []*pb.ThrowErrorRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), c.thrown...)
}

func noRetry(context.Context, error) bool { return false }

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockAdapter implements Adapter for end-to-end tests. Calls block until the
// adapter has been started.
type MockAdapter struct {
	mu       sync.Mutex
	started  bool
	requests chan mockRequest
}

type mockRequest struct {
	tool string
	args map[string]any
	res  chan mockResponse
}

type mockResponse struct {
	result any
	err    error
}

func NewMockAdapter() *MockAdapter {
	return &MockAdapter{requests: make(chan mockRequest)}
}

func (m *MockAdapter) Start(ctx context.Context, handler Handler) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("mock adapter already started")
	}
	m.started = true
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-m.requests:
			res, err := handler(ctx, req.tool, req.args)
			req.res <- mockResponse{result: res, err: err}
		}
	}
}

func (m *MockAdapter) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return nil
}

// Call simulates a tool call from a client.
func (m *MockAdapter) Call(ctx context.Context, tool string, args map[string]any) (any, error) {
	resChan := make(chan mockResponse, 1)
	select {
	case m.requests <- mockRequest{tool: tool, args: args, res: resChan}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-resChan:
		return resp.result, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CallJSON round-trips args through JSON first, so numbers arrive as float64
// the way a real client's arguments do.
func (m *MockAdapter) CallJSON(ctx context.Context, tool string, args map[string]any) (any, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var mapArgs map[string]any
	if err := json.Unmarshal(data, &mapArgs); err != nil {
		return nil, err
	}
	return m.Call(ctx, tool, mapArgs)
}

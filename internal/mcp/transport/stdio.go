package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/observability"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/util"
)

// maxMessageBytes bounds one newline-delimited message. Inline file content
// travels inside tool arguments, so this is well above review.max_source_bytes.
const maxMessageBytes = 16 << 20

// Stdio serves newline-delimited JSON-RPC on a reader/writer pair, by default
// the process stdin and stdout.
type Stdio struct {
	in      io.Reader
	out     io.Writer
	rpc     *dispatcher
	limiter *util.Limiter

	mu      sync.Mutex
	running bool
}

func NewStdio(opts Options, in io.Reader, out io.Writer) (*Stdio, error) {
	rpc, err := newDispatcher(opts)
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	s := &Stdio{in: in, out: out, rpc: rpc}
	if opts.RateLimit > 0 {
		s.limiter = util.NewLimiter(opts.RateLimit, opts.RateBurst)
	}
	return s, nil
}

func (s *Stdio) Start(ctx context.Context, handler Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	s.running = true
	s.mu.Unlock()

	err := s.serve(ctx, handler)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !isContextDone(err) {
		return err
	}
	return ctx.Err()
}

func (s *Stdio) Stop() error {
	return nil
}

func (s *Stdio) serve(ctx context.Context, handler Handler) error {
	if handler == nil {
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "stdio handler is required"}
	}

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
	writer := bufio.NewWriter(s.out)
	encoder := json.NewEncoder(writer)

	write := func(v any) error {
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return writer.Flush()
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			if err := write(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: parseErrorCode, Message: "Parse error"}}); err != nil {
				return err
			}
			continue
		}

		if s.limiter != nil && !s.limiter.Allow(1) {
			observability.MCPRateLimitedTotal.Inc()
			s.rpc.opts.Logger.Warn("mcp request rate limited", "transport", "stdio")
			if err := write(rateLimitedResponse(raw)); err != nil {
				return err
			}
			continue
		}

		if resp := s.rpc.process(ctx, handler, raw); resp != nil {
			if err := write(resp); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

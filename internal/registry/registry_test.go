// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echoInput struct {
	Message string `json:"message" validate:"required"`
	Level   int    `json:"level" validate:"omitempty,min=1,max=10"`
}

func newEchoTool(name string, fn ExecuteFunc) *Tool {
	return &Tool{
		Definition: mcp.NewTool(name,
			mcp.WithDescription("echoes its input"),
			mcp.WithString("message", mcp.Required()),
		),
		Category: CategoryAssessment,
		NewInput: func() any { return &echoInput{} },
		Execute:  fn,
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New(zap.NewNop())
	tool := newEchoTool("echo", nil)
	r.Register(tool)

	assert.Same(t, tool, r.Get("echo"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.Tools(), 1)
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := New(zap.NewNop())

	first := newEchoTool("echo", func(ctx context.Context, input any, rc Context) (any, error) {
		return "first", nil
	})
	second := newEchoTool("echo", func(ctx context.Context, input any, rc Context) (any, error) {
		return "second", nil
	})

	r.Register(first)
	r.Register(second)

	require.Len(t, r.Tools(), 1)
	handler := r.Handler(r.Get("echo"))
	result, err := handler(context.Background(), callRequest("echo", map[string]any{"message": "hi"}))
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "second", result.Content[0].(mcp.TextContent).Text)
}

func TestRegistry_UnregisterAndClear(t *testing.T) {
	r := New(zap.NewNop())
	r.Register(newEchoTool("a", nil))
	r.Register(newEchoTool("b", nil))

	r.Unregister("a")
	assert.Nil(t, r.Get("a"))
	assert.NotNil(t, r.Get("b"))

	r.Clear()
	assert.Empty(t, r.Tools())
}

func TestRegistry_ToolsByCategory(t *testing.T) {
	r := New(zap.NewNop())
	assess := newEchoTool("assess", nil)
	graph := newEchoTool("graph", nil)
	graph.Category = CategoryGraph
	r.Register(assess)
	r.Register(graph)

	byCat := r.ToolsByCategory(CategoryGraph)
	require.Len(t, byCat, 1)
	assert.Equal(t, "graph", byCat[0].Definition.Name)
	assert.Empty(t, r.ToolsByCategory("unknown"))
}

func TestRegistry_ContextReachesExecute(t *testing.T) {
	r := New(zap.NewNop())
	var seen Context
	r.Register(newEchoTool("echo", func(ctx context.Context, input any, rc Context) (any, error) {
		seen = rc
		return "ok", nil
	}))
	r.SetContext(Context{UserID: "u1", ConversationID: "c1", AthleteContext: "sprinter"})

	handler := r.Handler(r.Get("echo"))
	_, err := handler(context.Background(), callRequest("echo", map[string]any{"message": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, "u1", seen.UserID)
	assert.Equal(t, "c1", seen.ConversationID)
	assert.Equal(t, "sprinter", seen.AthleteContext)
}

func TestHandler_ValidationFailureIsToolError(t *testing.T) {
	r := New(zap.NewNop())
	executed := false
	r.Register(newEchoTool("echo", func(ctx context.Context, input any, rc Context) (any, error) {
		executed = true
		return "ok", nil
	}))

	handler := r.Handler(r.Get("echo"))
	result, err := handler(context.Background(), callRequest("echo", map[string]any{"level": 99}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.False(t, executed, "execute must not run on invalid input")
}

func TestHandler_ExecuteErrorPropagates(t *testing.T) {
	r := New(zap.NewNop())
	boom := errors.New("downstream unavailable")
	r.Register(newEchoTool("echo", func(ctx context.Context, input any, rc Context) (any, error) {
		return nil, boom
	}))

	handler := r.Handler(r.Get("echo"))
	_, err := handler(context.Background(), callRequest("echo", map[string]any{"message": "hi"}))
	assert.ErrorIs(t, err, boom)
}

func TestHandler_DecodesInput(t *testing.T) {
	r := New(zap.NewNop())
	var got *echoInput
	r.Register(newEchoTool("echo", func(ctx context.Context, input any, rc Context) (any, error) {
		got = input.(*echoInput)
		return "ok", nil
	}))

	handler := r.Handler(r.Get("echo"))
	_, err := handler(context.Background(), callRequest("echo", map[string]any{"message": "hello", "level": 4}))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Message)
	assert.Equal(t, 4, got.Level)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{ToolName: "echo", Fields: map[string]string{"Message": `failed "required" constraint`}}
	assert.Contains(t, err.Error(), "echo")
	assert.Contains(t, err.Error(), "1 field(s)")
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package registry exposes named, schema-validated operations to an MCP
// host. Tools are registered once at process start; the registry's
// Context is mutable registry-wide state, so a registry instance serves
// one conversation at a time. Hosts running concurrent conversations
// must create one registry per conversation.
package registry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Tool categories used for grouped listing
const (
	CategoryAssessment = "assessment"
	CategoryMemory     = "memory"
	CategoryGraph      = "graph"
)

// Context carries conversation-scoped values passed to every Execute
// call. Set it before each conversation turn; do not interleave turns
// for different users on one registry instance.
type Context struct {
	UserID         string
	ConversationID string
	AthleteContext string
}

// ExecuteFunc runs a tool against a decoded, validated input.
type ExecuteFunc func(ctx context.Context, input any, rc Context) (any, error)

// Tool pairs an MCP tool definition with its execution entry. NewInput
// returns a pointer to a fresh input struct; the handler decodes the
// request arguments into it and validates it before Execute runs.
type Tool struct {
	Definition  mcp.Tool
	Category    string
	SideEffects bool
	NewInput    func() any
	Execute     ExecuteFunc
}

// ValidationError reports input that failed schema validation, keyed by
// field. Returned to the MCP caller as a tool error, never as a
// transport error.
type ValidationError struct {
	ToolName string
	Fields   map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input for %s: %d field(s) failed validation", e.ToolName, len(e.Fields))
}

// Registry stores tools by name. Last registration under a name wins.
type Registry struct {
	tools    map[string]*Tool
	ctx      Context
	logger   *zap.Logger
	validate *validator.Validate
}

// New creates an empty registry
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:    make(map[string]*Tool),
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register stores a tool under its definition name. Re-registering a
// name overwrites the previous tool and logs a warning.
func (r *Registry) Register(t *Tool) {
	name := t.Definition.Name
	if _, exists := r.tools[name]; exists {
		r.logger.Warn("tool re-registered, previous definition replaced",
			zap.String("tool", name))
	}
	r.tools[name] = t
}

// Unregister removes a tool by name. Missing names are a no-op.
func (r *Registry) Unregister(name string) {
	delete(r.tools, name)
}

// Clear removes all registered tools
func (r *Registry) Clear() {
	r.tools = make(map[string]*Tool)
}

// SetContext installs the conversation context passed to every
// subsequent Execute call.
func (r *Registry) SetContext(rc Context) {
	r.ctx = rc
}

// Context returns the currently installed conversation context
func (r *Registry) Context() Context {
	return r.ctx
}

// Get returns the tool registered under name, or nil
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Tools returns all registered tools sorted by name
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Definition.Name < out[j].Definition.Name
	})
	return out
}

// ToolsByCategory returns registered tools in the given category,
// sorted by name.
func (r *Registry) ToolsByCategory(category string) []*Tool {
	out := []*Tool{}
	for _, t := range r.Tools() {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Handler adapts a registered tool into an mcp-go handler. The adapter
// decodes arguments into the tool's input struct, validates it, and
// only then invokes Execute. Validation failures surface as tool
// errors; Execute failures propagate unmodified.
func (r *Registry) Handler(t *Tool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := t.Definition.Name
		input := t.NewInput()
		if err := request.BindArguments(input); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse arguments for %s: %v", name, err)), nil
		}

		if err := r.validateInput(name, input); err != nil {
			r.logger.Warn("tool input rejected",
				zap.String("tool", name),
				zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}

		start := time.Now()
		r.logger.Debug("tool execution started", zap.String("tool", name))

		result, err := t.Execute(ctx, input, r.ctx)
		elapsed := time.Since(start)
		if err != nil {
			r.logger.Error("tool execution failed",
				zap.String("tool", name),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			return nil, err
		}

		r.logger.Info("tool executed",
			zap.String("tool", name),
			zap.Duration("elapsed", elapsed))

		switch v := result.(type) {
		case *mcp.CallToolResult:
			return v, nil
		case string:
			return mcp.NewToolResultText(v), nil
		default:
			return mcp.NewToolResultStructuredOnly(v), nil
		}
	}
}

// validateInput runs struct validation and converts failures into a
// typed ValidationError with per-field messages.
func (r *Registry) validateInput(toolName string, input any) error {
	err := r.validate.Struct(input)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation failed for %s: %w", toolName, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed %q constraint", fe.Tag())
	}
	return &ValidationError{ToolName: toolName, Fields: fields}
}

package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/MrWong99/guildmcp/internal/jsonrpc"
	"github.com/MrWong99/guildmcp/internal/middleware"
)

// frameOf extracts the raw params of the jsonrpc.Frame a middleware.Context
// carries as its Message.
func frameOf(ctx *middleware.Context) (json.RawMessage, bool) {
	frame, ok := ctx.Message.(*jsonrpc.Frame)
	if !ok {
		return nil, false
	}
	return frame.Params, true
}

// Dispatcher is the innermost handler of the middleware chain: it reads
// the JSON-RPC method off a middleware.Context, unmarshals that
// method's params, and routes to the matching manager. It is built
// once and handed to middleware.Build separately from the chain's
// middlewares, so rebuilding the chain (e.g. after a config reload)
// never loses a method registration.
type Dispatcher struct {
	tools       *ToolManager
	resources   *ResourceManager
	prompts     *PromptManager
	completions *CompletionManager

	requests      map[string]func(ctx *middleware.Context) (any, error)
	notifications map[string]func(ctx *middleware.Context) error
}

// NewDispatcher wires the three content managers and the completion
// manager into the method table the MCP protocol requires.
func NewDispatcher(tools *ToolManager, resources *ResourceManager, prompts *PromptManager, completions *CompletionManager) *Dispatcher {
	d := &Dispatcher{tools: tools, resources: resources, prompts: prompts, completions: completions}

	d.requests = map[string]func(ctx *middleware.Context) (any, error){
		"initialize":                  d.initialize,
		"ping":                        d.ping,
		"tools/list":                  d.toolsList,
		"tools/call":                  d.toolsCall,
		"resources/list":              d.resourcesList,
		"resources/templates/list":    d.resourcesTemplatesList,
		"resources/read":              d.resourcesRead,
		"resources/subscribe":         d.resourcesSubscribe,
		"resources/unsubscribe":       d.resourcesUnsubscribe,
		"prompts/list":                d.promptsList,
		"prompts/get":                 d.promptsGet,
		"completion/complete":         d.completionComplete,
		"logging/setLevel":            d.loggingSetLevel,
	}
	d.notifications = map[string]func(ctx *middleware.Context) error{
		"notifications/initialized":        noopNotification,
		"notifications/roots/list_changed": noopNotification,
	}
	return d
}

func noopNotification(ctx *middleware.Context) error { return nil }

// Dispatch is the middleware.Next the built chain terminates in.
func (d *Dispatcher) Dispatch(ctx *middleware.Context) (any, error) {
	if ctx.EventType == middleware.EventNotification {
		if handler, ok := d.notifications[ctx.Method]; ok {
			return nil, handler(ctx)
		}
		return nil, nil
	}
	handler, ok := d.requests[ctx.Method]
	if !ok {
		return nil, fmt.Errorf("mcpserver: unknown method %q", ctx.Method)
	}
	return handler(ctx)
}

func (d *Dispatcher) params(ctx *middleware.Context, dst any) error {
	frame, ok := frameOf(ctx)
	if !ok {
		return fmt.Errorf("mcpserver: middleware context carries no frame for %q", ctx.Method)
	}
	if len(frame) == 0 {
		return nil
	}
	return json.Unmarshal(frame, dst)
}

func (d *Dispatcher) initialize(ctx *middleware.Context) (any, error) {
	return InitializeResult{
		ProtocolVersion: "2025-06-18",
		ServerInfo:      map[string]any{"name": "guildmcp", "version": "0.1.0"},
		Capabilities: map[string]any{
			"tools":       map[string]any{"listChanged": false},
			"resources":   map[string]any{"listChanged": false, "subscribe": true},
			"prompts":     map[string]any{"listChanged": false},
			"completions": map[string]any{},
			"logging":     map[string]any{},
		},
	}, nil
}

func (d *Dispatcher) ping(ctx *middleware.Context) (any, error) {
	return EmptyResult{}, nil
}

func (d *Dispatcher) toolsList(ctx *middleware.Context) (any, error) {
	return d.tools.List(), nil
}

func (d *Dispatcher) toolsCall(ctx *middleware.Context) (any, error) {
	var params CallToolParams
	if err := d.params(ctx, &params); err != nil {
		return nil, err
	}
	return d.tools.Call(ctx.Context, params.Name, params.Arguments)
}

func (d *Dispatcher) resourcesList(ctx *middleware.Context) (any, error) {
	return d.resources.List(), nil
}

func (d *Dispatcher) resourcesTemplatesList(ctx *middleware.Context) (any, error) {
	return d.resources.ListTemplates(), nil
}

func (d *Dispatcher) resourcesRead(ctx *middleware.Context) (any, error) {
	var params ReadResourceParams
	if err := d.params(ctx, &params); err != nil {
		return nil, err
	}
	return d.resources.Read(ctx.Context, params.URI)
}

func (d *Dispatcher) resourcesSubscribe(ctx *middleware.Context) (any, error) {
	// No server-pushed resource update notifications are implemented;
	// subscribe/unsubscribe are accepted so clients that always call
	// them don't fail, per the resource-subscription Non-goal.
	return EmptyResult{}, nil
}

func (d *Dispatcher) resourcesUnsubscribe(ctx *middleware.Context) (any, error) {
	return EmptyResult{}, nil
}

func (d *Dispatcher) promptsList(ctx *middleware.Context) (any, error) {
	return d.prompts.List(), nil
}

func (d *Dispatcher) promptsGet(ctx *middleware.Context) (any, error) {
	var params GetPromptParams
	if err := d.params(ctx, &params); err != nil {
		return nil, err
	}
	return d.prompts.Get(ctx.Context, params.Name, params.Arguments)
}

func (d *Dispatcher) completionComplete(ctx *middleware.Context) (any, error) {
	var params CompleteParams
	if err := d.params(ctx, &params); err != nil {
		return nil, err
	}
	return d.completions.Complete(ctx.Context, params)
}

func (d *Dispatcher) loggingSetLevel(ctx *middleware.Context) (any, error) {
	// The requested level is accepted and ignored; no logger's level
	// changes. Accepting it lets clients negotiating logging capability
	// succeed.
	return EmptyResult{}, nil
}

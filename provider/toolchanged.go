package provider

import (
	"fmt"

	"github.com/ggoodman/mcp-methods-go/toolchanged"
)

// ToolListChangedProvider binds tool list change listeners. Listeners run
// on the client side of a connection, so only Sync and Async apply.
type ToolListChangedProvider struct {
	mode  Mode
	beans []any
	opts  options
}

// NewToolListChangedProvider returns a provider for beans.
func NewToolListChangedProvider(mode Mode, beans []any, opts ...Option) *ToolListChangedProvider {
	return &ToolListChangedProvider{mode: mode, beans: beans, opts: newOptions(opts)}
}

// Handlers binds every accepted declaration.
func (p *ToolListChangedProvider) Handlers() ([]toolchanged.Handler, error) {
	if p.mode.stateless() {
		return nil, fmt.Errorf("tool list changed listeners do not support %s mode", p.mode)
	}
	opt := toolchanged.WithLogger(p.opts.log)
	var out []toolchanged.Handler
	for _, e := range collect(p.opts.log, "tool_list_changed", p.beans, ToolListChangedBean.MCPToolListChanged) {
		if !accept(p.opts.log, p.mode, "tool_list_changed", e.bean, e.decl.Method) {
			continue
		}
		var (
			h   toolchanged.Handler
			err error
		)
		if p.mode == Async {
			h, err = toolchanged.NewAsync(e.bean, e.decl, opt)
		} else {
			h, err = toolchanged.NewSync(e.bean, e.decl, opt)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Dispatcher binds the declarations into a Dispatcher.
func (p *ToolListChangedProvider) Dispatcher() (*toolchanged.Dispatcher, error) {
	handlers, err := p.Handlers()
	if err != nil {
		return nil, err
	}
	return toolchanged.NewDispatcher(handlers, toolchanged.WithLogger(p.opts.log)), nil
}

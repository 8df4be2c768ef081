package provider

import (
	"fmt"

	"github.com/ggoodman/mcp-methods-go/mcpservice"
	"github.com/ggoodman/mcp-methods-go/tool"
)

// ToolProvider binds the tool declarations of its beans.
type ToolProvider struct {
	mode     Mode
	beans    []any
	opts     options
	toolOpts []tool.Option
}

// NewToolProvider returns a provider for beans. Beans that do not implement
// ToolBean contribute nothing.
func NewToolProvider(mode Mode, beans []any, opts ...Option) *ToolProvider {
	return &ToolProvider{mode: mode, beans: beans, opts: newOptions(opts)}
}

// WithToolOptions adds options passed to every tool callback.
func (p *ToolProvider) WithToolOptions(opts ...tool.Option) *ToolProvider {
	p.toolOpts = append(p.toolOpts, opts...)
	return p
}

// Handlers binds every accepted declaration. Tool names must be unique.
func (p *ToolProvider) Handlers() ([]tool.Handler, error) {
	opts := append([]tool.Option{tool.WithLogger(p.opts.log)}, p.toolOpts...)
	seen := make(map[string]bool)
	var out []tool.Handler
	for _, e := range collect(p.opts.log, "tool", p.beans, ToolBean.MCPTools) {
		if !accept(p.opts.log, p.mode, "tool", e.bean, e.decl.Method) {
			continue
		}
		name := e.decl.ToolName()
		if seen[name] {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		seen[name] = true
		h, err := p.bind(e.bean, e.decl, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (p *ToolProvider) bind(bean any, decl tool.Declaration, opts []tool.Option) (tool.Handler, error) {
	switch p.mode {
	case Async:
		return tool.NewAsync(bean, decl, opts...)
	case StatelessSync:
		return tool.NewStatelessSync(bean, decl, opts...)
	case StatelessAsync:
		return tool.NewStatelessAsync(bean, decl, opts...)
	default:
		return tool.NewSync(bean, decl, opts...)
	}
}

// Container binds the declarations into a ToolsContainer.
func (p *ToolProvider) Container(opts ...mcpservice.ContainerOption) (*mcpservice.ToolsContainer, error) {
	handlers, err := p.Handlers()
	if err != nil {
		return nil, err
	}
	opts = append([]mcpservice.ContainerOption{mcpservice.WithContainerLogger(p.opts.log)}, opts...)
	return mcpservice.NewToolsContainer(handlers, opts...), nil
}

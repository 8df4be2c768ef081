package provider

import (
	"github.com/ggoodman/mcp-methods-go/complete"
	"github.com/ggoodman/mcp-methods-go/mcpservice"
)

// CompleteProvider binds the completion declarations of its beans.
type CompleteProvider struct {
	mode  Mode
	beans []any
	opts  options
}

// NewCompleteProvider returns a provider for beans.
func NewCompleteProvider(mode Mode, beans []any, opts ...Option) *CompleteProvider {
	return &CompleteProvider{mode: mode, beans: beans, opts: newOptions(opts)}
}

// Handlers binds every accepted declaration.
func (p *CompleteProvider) Handlers() ([]complete.Handler, error) {
	var out []complete.Handler
	for _, e := range collect(p.opts.log, "complete", p.beans, CompleteBean.MCPCompletions) {
		if !accept(p.opts.log, p.mode, "complete", e.bean, e.decl.Method) {
			continue
		}
		h, err := p.bind(e.bean, e.decl)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (p *CompleteProvider) bind(bean any, decl complete.Declaration) (complete.Handler, error) {
	opt := complete.WithLogger(p.opts.log)
	switch p.mode {
	case Async:
		return complete.NewAsync(bean, decl, opt)
	case StatelessSync:
		return complete.NewStatelessSync(bean, decl, opt)
	case StatelessAsync:
		return complete.NewStatelessAsync(bean, decl, opt)
	default:
		return complete.NewSync(bean, decl, opt)
	}
}

// Container binds the declarations into a CompletionsContainer.
func (p *CompleteProvider) Container() (*mcpservice.CompletionsContainer, error) {
	handlers, err := p.Handlers()
	if err != nil {
		return nil, err
	}
	return mcpservice.NewCompletionsContainer(handlers, mcpservice.WithContainerLogger(p.opts.log)), nil
}

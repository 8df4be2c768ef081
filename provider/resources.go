package provider

import (
	"github.com/ggoodman/mcp-methods-go/mcpservice"
	"github.com/ggoodman/mcp-methods-go/resource"
)

// ResourceProvider binds the resource declarations of its beans.
type ResourceProvider struct {
	mode  Mode
	beans []any
	opts  options
}

// NewResourceProvider returns a provider for beans.
func NewResourceProvider(mode Mode, beans []any, opts ...Option) *ResourceProvider {
	return &ResourceProvider{mode: mode, beans: beans, opts: newOptions(opts)}
}

// Handlers binds every accepted declaration.
func (p *ResourceProvider) Handlers() ([]resource.Handler, error) {
	var out []resource.Handler
	for _, e := range collect(p.opts.log, "resource", p.beans, ResourceBean.MCPResources) {
		if !accept(p.opts.log, p.mode, "resource", e.bean, e.decl.Method) {
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

func (p *ResourceProvider) bind(bean any, decl resource.Declaration) (resource.Handler, error) {
	opt := resource.WithLogger(p.opts.log)
	switch p.mode {
	case Async:
		return resource.NewAsync(bean, decl, opt)
	case StatelessSync:
		return resource.NewStatelessSync(bean, decl, opt)
	case StatelessAsync:
		return resource.NewStatelessAsync(bean, decl, opt)
	default:
		return resource.NewSync(bean, decl, opt)
	}
}

// Container binds the declarations into a ResourcesContainer.
func (p *ResourceProvider) Container(opts ...mcpservice.ContainerOption) (*mcpservice.ResourcesContainer, error) {
	handlers, err := p.Handlers()
	if err != nil {
		return nil, err
	}
	opts = append([]mcpservice.ContainerOption{mcpservice.WithContainerLogger(p.opts.log)}, opts...)
	return mcpservice.NewResourcesContainer(handlers, opts...), nil
}

package resource

import (
	"errors"
	"log/slog"

	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/mcp"
)

// ContentType selects whether string results become text or blob contents.
type ContentType int

const (
	// ContentAuto decides from the MIME type: text/*, JSON, XML, YAML and
	// JavaScript types are text, everything else is blob.
	ContentAuto ContentType = iota
	ContentText
	// ContentBlob stores string results in the blob field as-is. The method
	// is expected to return base64 data.
	ContentBlob
)

func (c ContentType) String() string {
	switch c {
	case ContentAuto:
		return "auto"
	case ContentText:
		return "text"
	case ContentBlob:
		return "blob"
	}
	return "unknown"
}

// DefaultMimeType is used when a declaration has none.
const DefaultMimeType = "text/plain"

// Declaration names a method as a resource or resource template.
type Declaration struct {
	// Method is the exported method name on the bean.
	Method string
	// URI is a concrete URI or an RFC 6570 template such as
	// "users/{userId}/posts/{postId}".
	URI string
	// Name defaults to Method.
	Name        string
	Title       string
	Description string
	// MimeType defaults to DefaultMimeType.
	MimeType    string
	ContentType ContentType
	Annotations *mcp.Annotations
}

// ResourceName returns the advertised resource name.
func (d Declaration) ResourceName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Method
}

func (d Declaration) mimeType() string {
	if d.MimeType != "" {
		return d.MimeType
	}
	return DefaultMimeType
}

// ErrNilRequest is returned when a callback is invoked without a request.
var ErrNilRequest = errors.New("request must not be nil")

// Option configures a resource callback.
type Option func(*options)

type options struct {
	log *slog.Logger
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logctx.Wrap(o.log)
	return o
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

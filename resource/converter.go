package resource

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/elnormous/contenttype"

	"github.com/ggoodman/mcp-methods-go/mcp"
)

const returnTypes = "*mcp.ReadResourceResult, []mcp.ResourceContents, mcp.ResourceContents, string, []string or []byte"

var (
	stringType       = reflect.TypeFor[string]()
	supportedReturns = []reflect.Type{
		reflect.TypeFor[*mcp.ReadResourceResult](),
		reflect.TypeFor[mcp.ReadResourceResult](),
		reflect.TypeFor[[]mcp.ResourceContents](),
		reflect.TypeFor[mcp.ResourceContents](),
		reflect.TypeFor[*mcp.ResourceContents](),
		stringType,
		reflect.TypeFor[[]string](),
		reflect.TypeFor[[]byte](),
	}
)

func supportedReturn(t reflect.Type) bool {
	return slices.Contains(supportedReturns, t)
}

// parseMimeType validates s and reports whether string results of that type
// are textual.
func parseMimeType(s string) (textual bool, err error) {
	mt, err := contenttype.ParseMediaType(s)
	if err != nil {
		return false, fmt.Errorf("invalid MIME type %q: %w", s, err)
	}
	if mt.Type == "text" {
		return true, nil
	}
	sub := mt.Subtype
	if i := strings.LastIndexByte(sub, '+'); i >= 0 {
		sub = sub[i+1:]
	}
	switch sub {
	case "json", "xml", "yaml", "x-yaml", "javascript", "ecmascript", "x-www-form-urlencoded", "graphql", "sql":
		return true, nil
	}
	return false, nil
}

// converter turns method values into ReadResourceResults.
type converter struct {
	mimeType string
	blob     bool // strings go to Blob
}

func newConverter(decl Declaration) (converter, error) {
	mime := decl.mimeType()
	textual, err := parseMimeType(mime)
	if err != nil {
		return converter{}, err
	}
	c := converter{mimeType: mime}
	switch decl.ContentType {
	case ContentBlob:
		c.blob = true
	case ContentAuto:
		c.blob = !textual
	}
	return c, nil
}

func (c converter) contents(uri, s string) mcp.ResourceContents {
	rc := mcp.ResourceContents{URI: uri, MimeType: c.mimeType}
	if c.blob {
		rc.Blob = s
	} else {
		rc.Text = s
	}
	return rc
}

func (c converter) convert(v any, uri string) *mcp.ReadResourceResult {
	switch r := v.(type) {
	case nil:
		return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{}}
	case *mcp.ReadResourceResult:
		if r == nil {
			return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{}}
		}
		return r
	case mcp.ReadResourceResult:
		return &r
	case []mcp.ResourceContents:
		if r == nil {
			r = []mcp.ResourceContents{}
		}
		return &mcp.ReadResourceResult{Contents: r}
	case mcp.ResourceContents:
		return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{r}}
	case *mcp.ResourceContents:
		if r == nil {
			return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{}}
		}
		return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{*r}}
	case string:
		return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{c.contents(uri, r)}}
	case []string:
		out := make([]mcp.ResourceContents, 0, len(r))
		for _, s := range r {
			out = append(out, c.contents(uri, s))
		}
		return &mcp.ReadResourceResult{Contents: out}
	case []byte:
		if r == nil {
			return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{}}
		}
		return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{{
			URI:      uri,
			MimeType: c.mimeType,
			Blob:     base64.StdEncoding.EncodeToString(r),
		}}}
	}
	// Unreachable for validated signatures.
	return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{c.contents(uri, fmt.Sprint(v))}}
}

package mcp

// ProgressToken is an identifier used to correlate progress updates.
// It may be a string or number. A method parameter declared with this type
// receives the token of the request being served.
type ProgressToken any // string | number

// Meta is the request-level _meta object. A method parameter declared with
// this type receives the metadata of the request being served (nil when the
// request carried none).
type Meta map[string]any

const progressTokenKey = "progressToken"

// Get returns the value stored under key, or nil.
func (m Meta) Get(key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// ProgressToken returns the progressToken entry, or nil.
func (m Meta) ProgressToken() ProgressToken {
	v := m.Get(progressTokenKey)
	if v == nil {
		return nil
	}
	return ProgressToken(v)
}

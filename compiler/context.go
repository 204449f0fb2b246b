package compiler

// Context collects bound parameters for one compilation, in the order their
// placeholders are written.
type Context struct {
	dialect Dialect
	params  []any
}

func newContext(d Dialect) *Context {
	return &Context{dialect: d, params: make([]any, 0, 8)}
}

// AddParam binds v and returns its placeholder text.
func (c *Context) AddParam(v any) string {
	c.params = append(c.params, v)
	return c.dialect.Placeholder(len(c.params))
}

// Params returns the bound values so far.
func (c *Context) Params() []any {
	return c.params
}

func (c *Context) ParamCount() int {
	return len(c.params)
}

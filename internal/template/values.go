package template

// constantValue is a leaf with no placeholders; Render always returns
// the original value unchanged (spec §8 invariant 5: template
// idempotence for constants).
type constantValue struct{ v any }

func (c constantValue) render(Context) (any, error) { return c.v, nil }

// stringTemplate is a compiled string containing one or more {{...}}
// expressions, possibly interleaved with literal text.
type stringTemplate struct {
	nodes    []node
	compiler *Compiler
}

func (s stringTemplate) render(ctx Context) (any, error) {
	return renderNodes(s.nodes, ctx, s.compiler)
}

// objectTemplate recurses into a JSON-object-shaped template, rebuilding
// the object on every render from its compiled field values.
type objectTemplate struct {
	fields map[string]templateValue
}

func (o objectTemplate) render(ctx Context) (any, error) {
	out := make(map[string]any, len(o.fields))
	for k, tv := range o.fields {
		v, err := tv.render(ctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// arrayTemplate recurses into a JSON-array-shaped template.
type arrayTemplate struct {
	elems []templateValue
}

func (a arrayTemplate) render(ctx Context) (any, error) {
	out := make([]any, len(a.elems))
	for i, tv := range a.elems {
		v, err := tv.render(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

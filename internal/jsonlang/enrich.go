package jsonlang

// EnrichWithSchema assigns the final schema to every node of the tree rooted
// at n. Unions resolve by the kind of node actually parsed; switching
// properties resolve through the value of their deciding sibling. Spans are
// never touched and running the pass twice has no further effect.
func EnrichWithSchema(n Node, s Schema) {
	if n == nil {
		return
	}
	if u, ok := s.(*UnionSchema); ok {
		if o, ok := u.ForNode(n.Kind()); ok {
			s = o
		}
	}
	n.setSchema(s)

	switch n := n.(type) {
	case *Object:
		objSchema, _ := s.(*ObjectSchema)
		for _, p := range n.Properties {
			p.schema = objSchema.Property(p.Key.Value)
			var valueSchema Schema
			if p.schema != nil {
				valueSchema = p.schema.Resolve(n)
			}
			EnrichWithSchema(p.Value, valueSchema)
		}
	case *Array:
		var elem Schema
		if as, ok := s.(*ArraySchema); ok {
			elem = as.Element
		}
		for _, e := range n.Elements {
			EnrichWithSchema(e, elem)
		}
	}
}

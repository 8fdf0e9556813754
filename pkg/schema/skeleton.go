package schema

// Skeleton keeps only the structure of a schema: objects are rebuilt field
// by field, arrays become empty and every other value becomes "".
func Skeleton(n *Node) *Node {
	if n == nil {
		return NewString("")
	}
	switch n.Kind {
	case Array:
		return NewArray()
	case Object:
		obj := NewObject()
		for _, f := range n.Fields {
			obj.Fields = append(obj.Fields, F(f.Name, Skeleton(f.Value)))
		}
		return obj
	default:
		return NewString("")
	}
}

// CountFields counts the fields a model has to fill: every object field
// whose value is not itself an object.
func CountFields(n *Node) int {
	if n == nil || n.Kind != Object {
		return 0
	}
	count := 0
	for _, f := range n.Fields {
		if f.Value != nil && f.Value.Kind == Object {
			count += CountFields(f.Value)
			continue
		}
		count++
	}
	return count
}

// Package schema models the nested field schema a caller wants filled and
// derives the query keys used to rank document chunks.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

type Kind int

const (
	Null Kind = iota
	String
	// Scalar is any non-string primitive: numbers and booleans.
	Scalar
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case String:
		return "string"
	case Scalar:
		return "scalar"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Field is one entry of an object node.
type Field struct {
	Name  string
	Value *Node
}

// Node is an immutable schema value. Object fields keep insertion order.
type Node struct {
	Kind Kind
	// Value holds the text of String nodes and the raw literal of Scalar nodes.
	Value  string
	Fields []Field
	Items  []*Node
}

func NewObject(fields ...Field) *Node {
	return &Node{Kind: Object, Fields: fields}
}

func NewArray(items ...*Node) *Node {
	return &Node{Kind: Array, Items: items}
}

func NewString(s string) *Node {
	return &Node{Kind: String, Value: s}
}

func NewNull() *Node {
	return &Node{Kind: Null}
}

// F is shorthand for building object fields.
func F(name string, value *Node) Field {
	return Field{Name: name, Value: value}
}

// IsLeaf reports whether the node terminates key extraction: strings, null
// and absent values.
func (n *Node) IsLeaf() bool {
	return n == nil || n.Kind == String || n.Kind == Null
}

// Get returns the value of an object field.
func (n *Node) Get(name string) (*Node, bool) {
	if n == nil || n.Kind != Object {
		return nil, false
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// FromValue converts decoded Go values into a Node. Map keys are sorted since
// Go maps carry no order; use Parse when field order matters.
func FromValue(v any) *Node {
	switch t := v.(type) {
	case nil:
		return NewNull()
	case *Node:
		return t
	case string:
		return NewString(t)
	case json.Number:
		return &Node{Kind: Scalar, Value: t.String()}
	case bool:
		return &Node{Kind: Scalar, Value: strconv.FormatBool(t)}
	case map[string]any:
		names := make([]string, 0, len(t))
		for name := range t {
			names = append(names, name)
		}
		sort.Strings(names)
		obj := NewObject()
		for _, name := range names {
			obj.Fields = append(obj.Fields, F(name, FromValue(t[name])))
		}
		return obj
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return FromValue(m)
	case []any:
		arr := NewArray()
		for _, item := range t {
			arr.Items = append(arr.Items, FromValue(item))
		}
		return arr
	case []string:
		arr := NewArray()
		for _, item := range t {
			arr.Items = append(arr.Items, NewString(item))
		}
		return arr
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return &Node{Kind: Scalar, Value: fmt.Sprint(t)}
		}
		return &Node{Kind: Scalar, Value: string(raw)}
	}
}

// MarshalJSON encodes the node keeping object field order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case Null:
		buf.WriteString("null")
	case String:
		return writeString(buf, n.Value)
	case Scalar:
		if json.Valid([]byte(n.Value)) {
			buf.WriteString(n.Value)
			return nil
		}
		return writeString(buf, n.Value)
	case Array:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("schema: cannot encode %s node", n.Kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}

// Indent renders the node as indented JSON for prompts and logs.
func (n *Node) Indent() string {
	raw, err := n.MarshalJSON()
	if err != nil {
		return ""
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}

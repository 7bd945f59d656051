package cosmosjson

import (
	"fmt"
	"io"
)

// Member is one property of a materialized object.
type Member struct {
	Name  string
	Value any
}

// Object is a materialized object.  Properties keep their document order and
// duplicate names are kept.
type Object []Member

// Get returns the value of the first member with the given name.
func (o Object) Get(name string) (any, bool) {
	for _, m := range o {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

// Materialize reads a whole document from r and converts it to Go values.
// Arrays become []any and objects become Object.  Scalars become nil, bool,
// string, Number64, []byte, uuid.UUID or the Go type matching their typed
// token.
func Materialize(r Reader) (any, error) {
	ok, err := r.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	v, err := materializeToken(r)
	if err != nil {
		return nil, err
	}
	if ok, err = r.Read(); err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("unexpected %s after root value", r.TokenType())
	}
	return v, nil
}

func readOrEOF(r Reader) error {
	ok, err := r.Read()
	if err != nil {
		return err
	}
	if !ok {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func materializeToken(r Reader) (any, error) {
	switch r.TokenType() {
	case BeginArray:
		arr := make([]any, 0)
		for {
			if err := readOrEOF(r); err != nil {
				return nil, err
			}
			if r.TokenType() == EndArray {
				return arr, nil
			}
			v, err := materializeToken(r)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
	case BeginObject:
		obj := make(Object, 0)
		for {
			if err := readOrEOF(r); err != nil {
				return nil, err
			}
			if r.TokenType() == EndObject {
				return obj, nil
			}
			name, err := r.StringValue()
			if err != nil {
				return nil, err
			}
			if err := readOrEOF(r); err != nil {
				return nil, err
			}
			v, err := materializeToken(r)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Name: name, Value: v})
		}
	}
	return readerScalar(r)
}

func readerScalar(r Reader) (any, error) {
	switch tt := r.TokenType(); tt {
	case Null:
		return nil, nil
	case True:
		return true, nil
	case False:
		return false, nil
	case String:
		return r.StringValue()
	case Number:
		return r.NumberValue()
	case Int8:
		return r.Int8Value()
	case Int16:
		return r.Int16Value()
	case Int32:
		return r.Int32Value()
	case Int64:
		return r.Int64Value()
	case UInt32:
		return r.UInt32Value()
	case Float32:
		return r.Float32Value()
	case Float64:
		return r.Float64Value()
	case Guid:
		return r.GuidValue()
	case Binary:
		b, err := r.BinaryValue()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	default:
		return nil, fmt.Errorf("unexpected %s", tt)
	}
}

// MaterializeNode converts the subtree at n to Go values, as Materialize.
func MaterializeNode(nav Navigator, n Node) (any, error) {
	switch t := nav.NodeType(n); t {
	case ArrayNode:
		arr := make([]any, 0)
		for item, err := range nav.ArrayItems(n) {
			if err != nil {
				return nil, err
			}
			v, err := MaterializeNode(nav, item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case ObjectNode:
		obj := make(Object, 0)
		for p, err := range nav.ObjectProperties(n) {
			if err != nil {
				return nil, err
			}
			name, err := nav.StringValue(p.Name)
			if err != nil {
				return nil, err
			}
			v, err := MaterializeNode(nav, p.Value)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Name: name, Value: v})
		}
		return obj, nil
	case NullNode:
		return nil, nil
	case TrueNode:
		return true, nil
	case FalseNode:
		return false, nil
	case StringNode:
		return nav.StringValue(n)
	case NumberNode:
		return nav.NumberValue(n)
	case Int8Node:
		return nav.Int8Value(n)
	case Int16Node:
		return nav.Int16Value(n)
	case Int32Node:
		return nav.Int32Value(n)
	case Int64Node:
		return nav.Int64Value(n)
	case UInt32Node:
		return nav.UInt32Value(n)
	case Float32Node:
		return nav.Float32Value(n)
	case Float64Node:
		return nav.Float64Value(n)
	case GuidNode:
		return nav.GuidValue(n)
	case BinaryNode:
		b, err := nav.BinaryValue(n)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	default:
		return nil, fmt.Errorf("unexpected node type %s", t)
	}
}

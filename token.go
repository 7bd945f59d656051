package cosmosjson

import "strconv"

// TokenType is the kind of a lexical token produced by a Reader.
type TokenType uint8

// Token types.  Structural tokens come first, then scalars.
const (
	NotStarted TokenType = iota
	BeginArray
	EndArray
	BeginObject
	EndObject
	FieldName
	Null
	True
	False
	String
	Number
	Int8
	Int16
	Int32
	Int64
	UInt32
	Float32
	Float64
	Guid
	Binary
)

var tokenTypeNames = [...]string{
	NotStarted:  "NotStarted",
	BeginArray:  "BeginArray",
	EndArray:    "EndArray",
	BeginObject: "BeginObject",
	EndObject:   "EndObject",
	FieldName:   "FieldName",
	Null:        "Null",
	True:        "True",
	False:       "False",
	String:      "String",
	Number:      "Number",
	Int8:        "Int8",
	Int16:       "Int16",
	Int32:       "Int32",
	Int64:       "Int64",
	UInt32:      "UInt32",
	Float32:     "Float32",
	Float64:     "Float64",
	Guid:        "Guid",
	Binary:      "Binary",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "TokenType(" + strconv.Itoa(int(t)) + ")"
}

// IsScalar reports whether t is a value token that is neither structural nor
// a field name.
func (t TokenType) IsScalar() bool {
	return t >= Null
}

// NodeType is the kind of a Navigator node.
type NodeType uint8

// Node types.
const (
	NullNode NodeType = iota
	FalseNode
	TrueNode
	NumberNode
	StringNode
	ArrayNode
	ObjectNode
	Int8Node
	Int16Node
	Int32Node
	Int64Node
	UInt32Node
	Float32Node
	Float64Node
	GuidNode
	BinaryNode
)

var nodeTypeNames = [...]string{
	NullNode:    "Null",
	FalseNode:   "False",
	TrueNode:    "True",
	NumberNode:  "Number",
	StringNode:  "String",
	ArrayNode:   "Array",
	ObjectNode:  "Object",
	Int8Node:    "Int8",
	Int16Node:   "Int16",
	Int32Node:   "Int32",
	Int64Node:   "Int64",
	UInt32Node:  "UInt32",
	Float32Node: "Float32",
	Float64Node: "Float64",
	GuidNode:    "Guid",
	BinaryNode:  "Binary",
}

func (n NodeType) String() string {
	if int(n) < len(nodeTypeNames) {
		return nodeTypeNames[n]
	}
	return "NodeType(" + strconv.Itoa(int(n)) + ")"
}

// nodeTypeOf maps the token that opens a value to its node type.
func nodeTypeOf(t TokenType) NodeType {
	switch t {
	case Null:
		return NullNode
	case False:
		return FalseNode
	case True:
		return TrueNode
	case Number:
		return NumberNode
	case String:
		return StringNode
	case BeginArray:
		return ArrayNode
	case BeginObject:
		return ObjectNode
	case Int8:
		return Int8Node
	case Int16:
		return Int16Node
	case Int32:
		return Int32Node
	case Int64:
		return Int64Node
	case UInt32:
		return UInt32Node
	case Float32:
		return Float32Node
	case Float64:
		return Float64Node
	case Guid:
		return GuidNode
	case Binary:
		return BinaryNode
	}
	panic("cosmosjson: no node type for " + t.String())
}

// Format identifies a serialization format.
type Format byte

const (
	// TextFormat is human-readable JSON, extended with prefixed literals for
	// typed values.
	TextFormat Format = 0x00
	// BinaryFormat is the compact tokenized encoding.  Its value is also the
	// first byte of every binary buffer.
	BinaryFormat Format = 0x80
	// InteropFormat marks readers and writers that bridge to a foreign
	// streaming JSON API.  It never appears on the wire.
	InteropFormat Format = 0xFF
)

func (f Format) String() string {
	switch f {
	case TextFormat:
		return "text"
	case BinaryFormat:
		return "binary"
	case InteropFormat:
		return "interop"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// DetectFormat reports the format of a serialized buffer from its first byte.
func DetectFormat(buf []byte) Format {
	if len(buf) > 0 && buf[0] == byte(BinaryFormat) {
		return BinaryFormat
	}
	return TextFormat
}

package cosmosjson

import "errors"

// DefaultMaxDepth is the nesting limit used when none is configured.
const DefaultMaxDepth = 200

var (
	errMultipleRoots      = errors.New("value after end of root value")
	errUnexpectedEnd      = errors.New("end of container without matching start")
	errFieldNameOutside   = errors.New("field name outside of object")
	errExpectingFieldName = errors.New("expecting field name or end of object")
	errExpectingValue     = errors.New("expecting value after field name")
	errMismatchedEnd      = errors.New("end of container does not match start")
)

type stateFrame struct {
	object     bool
	expectName bool
}

// objectState tracks the grammar shared by readers and writers: containers
// nest, objects alternate field names and values, and there is exactly one
// root value.
type objectState struct {
	stack    []stateFrame
	rootDone bool
	maxDepth int
}

func newObjectState(maxDepth int) objectState {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return objectState{
		stack:    make([]stateFrame, 0, 8),
		maxDepth: maxDepth,
	}
}

func (s *objectState) depth() int { return len(s.stack) }

func (s *objectState) complete() bool { return s.rootDone && len(s.stack) == 0 }

func (s *objectState) inObject() bool {
	return len(s.stack) > 0 && s.stack[len(s.stack)-1].object
}

func (s *objectState) expectingName() bool {
	return len(s.stack) > 0 && s.stack[len(s.stack)-1].expectName
}

// register validates that tt may come next and updates the state.
func (s *objectState) register(tt TokenType) error {
	if len(s.stack) == 0 {
		switch {
		case s.rootDone:
			return errMultipleRoots
		case tt == EndArray || tt == EndObject:
			return errUnexpectedEnd
		case tt == FieldName:
			return errFieldNameOutside
		}
		return s.value(tt)
	}

	top := &s.stack[len(s.stack)-1]
	if top.object {
		if top.expectName {
			switch tt {
			case FieldName:
				top.expectName = false
				return nil
			case EndObject:
				s.pop()
				return nil
			}
			return errExpectingFieldName
		}
		switch tt {
		case FieldName, EndObject, EndArray:
			return errExpectingValue
		}
		return s.value(tt)
	}

	switch tt {
	case FieldName:
		return errFieldNameOutside
	case EndObject:
		return errMismatchedEnd
	case EndArray:
		s.pop()
		return nil
	}
	return s.value(tt)
}

func (s *objectState) value(tt TokenType) error {
	switch tt {
	case BeginArray, BeginObject:
		if len(s.stack) >= s.maxDepth {
			return ErrMaxDepth
		}
		s.stack = append(s.stack, stateFrame{object: tt == BeginObject, expectName: tt == BeginObject})
		return nil
	}
	s.afterValue()
	return nil
}

func (s *objectState) pop() {
	s.stack = s.stack[:len(s.stack)-1]
	s.afterValue()
}

func (s *objectState) afterValue() {
	if len(s.stack) == 0 {
		s.rootDone = true
		return
	}
	top := &s.stack[len(s.stack)-1]
	if top.object {
		top.expectName = true
	}
}

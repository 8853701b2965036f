package nodes

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ErrInvalidArgument is wrapped by every error produced while building a
// window: bad frame specs, conflicting options, illegal inheritance.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// FrameKind selects the frame unit of a window: RANGE, ROWS or GROUPS.
type FrameKind int

const (
	FrameRange FrameKind = iota
	FrameRows
	FrameGroups
)

// String returns the SQL keyword for this frame kind.
func (k FrameKind) String() string {
	switch k {
	case FrameRows:
		return "ROWS"
	case FrameGroups:
		return "GROUPS"
	default:
		return "RANGE"
	}
}

// BoundType is the normalized form of one side of a frame.
type BoundType int

const (
	BoundUnbounded BoundType = iota
	BoundCurrentRow
	BoundOffset
)

// FrameBound is a normalized frame boundary. For BoundOffset, a negative
// Offset means PRECEDING and a positive one FOLLOWING; it is never zero.
type FrameBound struct {
	Type   BoundType
	Offset int
}

// Frame is the frame clause of a window: <Kind> BETWEEN <Lower> AND <Upper>.
type Frame struct {
	Kind  FrameKind
	Lower FrameBound
	Upper FrameBound
}

// Span is a half-open integer interval used as a frame spec, so that
// Span{-3, 2} means BETWEEN 3 PRECEDING AND 2 FOLLOWING.
type Span struct {
	Start int
	Stop  int
}

// NormalizeFrame converts a frame spec into its two normalized bounds.
//
// spec is either a Span or any array or slice of exactly two elements. Each
// element may be nil (unbounded), an integer, a float (truncated), a decimal
// string, or a pointer to one of those.
func NormalizeFrame(spec any) (lower, upper FrameBound, err error) {
	var pair [2]any
	switch s := spec.(type) {
	case Span:
		pair = [2]any{s.Start, s.Stop}
	case *Span:
		if s == nil {
			return lower, upper, invalidArgument("2-tuple expected for range/rows/groups, got nil *Span")
		}
		pair = [2]any{s.Start, s.Stop}
	default:
		rv := reflect.ValueOf(spec)
		if !rv.IsValid() || (rv.Kind() != reflect.Array && rv.Kind() != reflect.Slice) || rv.Len() != 2 {
			return lower, upper, invalidArgument("2-tuple expected for range/rows/groups, got %T", spec)
		}
		pair = [2]any{rv.Index(0).Interface(), rv.Index(1).Interface()}
	}

	if lower, err = normalizeBound(pair[0]); err != nil {
		return FrameBound{}, FrameBound{}, err
	}
	if upper, err = normalizeBound(pair[1]); err != nil {
		return FrameBound{}, FrameBound{}, err
	}
	return lower, upper, nil
}

func normalizeBound(v any) (FrameBound, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return FrameBound{Type: BoundUnbounded}, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return FrameBound{Type: BoundUnbounded}, nil
	}

	var n int
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < math.MinInt || i > math.MaxInt {
			return FrameBound{}, invalidArgument("int or nil expected for range value, %d overflows int", i)
		}
		n = int(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt {
			return FrameBound{}, invalidArgument("int or nil expected for range value, %d overflows int", u)
		}
		n = int(u)
	case reflect.Float32, reflect.Float64:
		f := math.Trunc(rv.Float())
		if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
			return FrameBound{}, invalidArgument("int or nil expected for range value, got %v", rv.Float())
		}
		n = int(f)
	case reflect.String:
		i, err := strconv.Atoi(strings.TrimSpace(rv.String()))
		if err != nil {
			return FrameBound{}, invalidArgument("int or nil expected for range value, got %q", rv.String())
		}
		n = i
	default:
		return FrameBound{}, invalidArgument("int or nil expected for range value, got %T", v)
	}

	if n == 0 {
		return FrameBound{Type: BoundCurrentRow}, nil
	}
	return FrameBound{Type: BoundOffset, Offset: n}, nil
}

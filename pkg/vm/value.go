package vm

import (
	"cmp"
	"sort"
	"strconv"
	"strings"

	"github.com/zurustar/gem/pkg/compiler/ast"
)

// Kind identifies the variant of a Value. Kinds are declared in their
// cross-variant ordering: values of different kinds compare by Kind.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindArray
	KindName
	KindFunction
	KindObject
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindNumber:   "number",
	KindString:   "string",
	KindBool:     "boolean",
	KindArray:    "array",
	KindName:     "name",
	KindFunction: "function",
	KindObject:   "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a runtime value. The implementations in this file are the only ones.
type Value interface {
	Kind() Kind
	String() string
	value()
}

// Null is the absent value.
type Null struct{}

// Number is the only numeric type.
type Number float64

// String is an immutable string value.
type String string

// Bool is a boolean value.
type Bool bool

// Name is an unresolved name reference. It only exists while an
// expression is being evaluated and is never stored.
type Name string

// Array is an ordered, mutable sequence. Arrays are shared by reference.
type Array struct {
	Elements []Value
}

// Function is a user-defined function. It sees only its parameters and
// the heap, never the caller's frame. Body is shared with the syntax tree.
type Function struct {
	Name       string
	Parameters []string
	Body       *ast.Block
}

// Hooks are the optional special methods of a class.
type Hooks struct {
	Init    *Function // called by new with the constructor arguments
	Display *Function // used when the object is formatted as text
}

// Object is a class or an instance of one. Members holds data fields and
// methods; hook methods live in Hooks instead.
type Object struct {
	Class   string
	IsClass bool
	Members map[string]Value
	Hooks   Hooks
}

func (Null) Kind() Kind      { return KindNull }
func (Number) Kind() Kind    { return KindNumber }
func (String) Kind() Kind    { return KindString }
func (Bool) Kind() Kind      { return KindBool }
func (Name) Kind() Kind      { return KindName }
func (*Array) Kind() Kind    { return KindArray }
func (*Function) Kind() Kind { return KindFunction }
func (*Object) Kind() Kind   { return KindObject }

func (Null) value()      {}
func (Number) value()    {}
func (String) value()    {}
func (Bool) value()      {}
func (Name) value()      {}
func (*Array) value()    {}
func (*Function) value() {}
func (*Object) value()   {}

func (Null) String() string     { return "null" }
func (n Number) String() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }
func (s String) String() string { return string(s) }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (n Name) String() string   { return string(n) }

func (a *Array) String() string {
	s, _ := formatValue(a, nil)
	return s
}

func (f *Function) String() string {
	return "<fn " + f.Name + "(" + strings.Join(f.Parameters, ", ") + ")>"
}

func (o *Object) String() string {
	s, _ := formatValue(o, nil)
	return s
}

// newFunction builds a function value from its definition.
func newFunction(def *ast.FunctionDefinition) *Function {
	if def == nil {
		return nil
	}
	return &Function{Name: def.Name, Parameters: def.Parameters, Body: def.Body}
}

// instantiate copies a class into a fresh instance.
func (o *Object) instantiate() *Object {
	members := make(map[string]Value, len(o.Members))
	for k, v := range o.Members {
		members[k] = v
	}
	return &Object{Class: o.Class, Members: members, Hooks: o.Hooks}
}

// memberNames returns the member names in sorted order.
func (o *Object) memberNames() []string {
	names := make([]string, 0, len(o.Members))
	for name := range o.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsTrue reports whether v is the boolean true. Conditions accept nothing else.
func IsTrue(v Value) bool {
	b, ok := v.(Bool)
	return ok && bool(b)
}

// Compare orders two values. Values of different kinds order by Kind;
// values of the same kind compare structurally. Cyclic arrays and objects
// compare equal when their cycles line up.
func Compare(a, b Value) int {
	return compare(a, b, nil)
}

// pairs holds the array and object pairs already being compared.
type pairs map[[2]Value]bool

func compare(a, b Value, seen pairs) int {
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}

	switch x := a.(type) {
	case Null:
		return 0
	case Number:
		return cmp.Compare(x, b.(Number))
	case String:
		return strings.Compare(string(x), string(b.(String)))
	case Bool:
		y := b.(Bool)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		default:
			return 1
		}
	case Name:
		return strings.Compare(string(x), string(b.(Name)))
	case *Function:
		return compareFunctions(x, b.(*Function))
	case *Array:
		if seen == nil {
			seen = pairs{}
		}
		return compareArrays(x, b.(*Array), seen)
	case *Object:
		if seen == nil {
			seen = pairs{}
		}
		return compareObjects(x, b.(*Object), seen)
	}
	return 0
}

// Equal reports structural equality.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// compareFunctions orders by name, parameters and body text. Functions
// see no enclosing scope, so equal text means equal behavior.
func compareFunctions(a, b *Function) int {
	if a == b {
		return 0
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.Parameters), len(b.Parameters)); c != 0 {
		return c
	}
	for i := range a.Parameters {
		if c := strings.Compare(a.Parameters[i], b.Parameters[i]); c != 0 {
			return c
		}
	}
	if a.Body == b.Body {
		return 0
	}
	return strings.Compare(blockText(a.Body), blockText(b.Body))
}

func blockText(b *ast.Block) string {
	if b == nil {
		return ""
	}
	return b.String()
}

func compareArrays(a, b *Array, seen pairs) int {
	if a == b || seen[[2]Value{a, b}] {
		return 0
	}
	seen[[2]Value{a, b}] = true

	n := min(len(a.Elements), len(b.Elements))
	for i := 0; i < n; i++ {
		if c := compare(a.Elements[i], b.Elements[i], seen); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Elements), len(b.Elements))
}

func compareObjects(a, b *Object, seen pairs) int {
	if a == b || seen[[2]Value{a, b}] {
		return 0
	}
	seen[[2]Value{a, b}] = true

	if c := strings.Compare(a.Class, b.Class); c != 0 {
		return c
	}
	an, bn := a.memberNames(), b.memberNames()
	n := min(len(an), len(bn))
	for i := 0; i < n; i++ {
		if c := strings.Compare(an[i], bn[i]); c != 0 {
			return c
		}
		if c := compare(a.Members[an[i]], b.Members[bn[i]], seen); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(an), len(bn))
}

// displayFunc renders an object through its display hook. ok is false when
// the object has none.
type displayFunc func(o *Object) (s string, ok bool, err error)

// formatValue renders v as text. Strings nested in arrays are quoted.
// An array or object met again inside itself is written as [...] or
// Class{...}.
func formatValue(v Value, display displayFunc) (string, error) {
	w := &valueWriter{display: display, active: make(map[Value]bool)}
	if err := w.write(v, false); err != nil {
		return "", err
	}
	return w.sb.String(), nil
}

type valueWriter struct {
	sb      strings.Builder
	display displayFunc
	active  map[Value]bool // arrays and objects currently being written
}

func (w *valueWriter) write(v Value, nested bool) error {
	switch x := v.(type) {
	case String:
		if nested {
			w.sb.WriteString(`"` + string(x) + `"`)
		} else {
			w.sb.WriteString(string(x))
		}
	case *Array:
		if w.active[x] {
			w.sb.WriteString("[...]")
			return nil
		}
		w.active[x] = true
		defer delete(w.active, x)

		w.sb.WriteByte('[')
		for i, elem := range x.Elements {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			if err := w.write(elem, true); err != nil {
				return err
			}
		}
		w.sb.WriteByte(']')
	case *Object:
		if x.IsClass {
			w.sb.WriteString("<class " + x.Class + ">")
			return nil
		}
		if w.active[x] {
			w.sb.WriteString(x.Class + "{...}")
			return nil
		}
		w.active[x] = true
		defer delete(w.active, x)

		if w.display != nil {
			s, ok, err := w.display(x)
			if err != nil {
				return err
			}
			if ok {
				w.sb.WriteString(s)
				return nil
			}
		}
		w.sb.WriteString(x.Class + "{")
		written := 0
		for _, name := range x.memberNames() {
			if _, isMethod := x.Members[name].(*Function); isMethod {
				continue
			}
			if written > 0 {
				w.sb.WriteString(", ")
			}
			written++
			w.sb.WriteString(name + ": ")
			if err := w.write(x.Members[name], true); err != nil {
				return err
			}
		}
		w.sb.WriteByte('}')
	default:
		w.sb.WriteString(v.String())
	}
	return nil
}

package ns

import (
	"sort"

	"github.com/holiman/uint256"

	"polyc/internal/ast"
	"polyc/internal/errors"
)

// Target is the subset of target information the resolver depends on
type Target interface {
	Name() string
	WordBits() int
	AddressBits() int
	// ValueBits is the width of native token amounts such as msg.value
	ValueBits() int
	SelectorBytes() int
	HasBuiltin(name string) bool
}

// SymbolKind classifies a namespace entry
type SymbolKind int

const (
	SymContract SymbolKind = iota
	SymFunction
	SymStruct
	SymEnum
	SymEvent
	SymError
	SymVariable
)

func (k SymbolKind) String() string {
	switch k {
	case SymContract:
		return "contract"
	case SymFunction:
		return "function"
	case SymStruct:
		return "struct"
	case SymEnum:
		return "enum"
	case SymEvent:
		return "event"
	case SymError:
		return "error"
	default:
		return "variable"
	}
}

// Symbol is one namespace entry. Functions and events may be overloaded and
// keep every candidate in declaration order.
type Symbol struct {
	Kind      SymbolKind
	Span      ast.Span
	Contract  *Contract
	Functions []*Function
	Struct    *Struct
	Enum      *Enum
	Events    []*Event
	Error     *UserError
	Variable  *Variable
}

// Namespace owns every resolved entity of one compilation unit
type Namespace struct {
	Path        string
	Target      Target
	Contracts   []*Contract
	Functions   []*Function
	Structs     []*Struct
	Enums       []*Enum
	Events      []*Event
	Errors      []*UserError
	Constants   []*Variable
	Imports     []*Namespace
	Diagnostics errors.Diagnostics

	symbols   map[string]*Symbol
	nextVarID int
}

// New creates an empty namespace for the unit at path
func New(path string, target Target) *Namespace {
	return &Namespace{
		Path:    path,
		Target:  target,
		symbols: make(map[string]*Symbol),
	}
}

// Diagnose appends a diagnostic to the unit's log
func (n *Namespace) Diagnose(d errors.Diagnostic) {
	n.Diagnostics = append(n.Diagnostics, d)
}

// HasErrors reports whether any error diagnostic has been recorded
func (n *Namespace) HasErrors() bool {
	return n.Diagnostics.HasErrors()
}

// Lookup returns the entry registered under a fully-qualified name
func (n *Namespace) Lookup(name string) *Symbol {
	return n.symbols[name]
}

// Define registers a non-overloadable entity. When the name is taken the
// existing entry is returned and nothing is registered.
func (n *Namespace) Define(name string, sym *Symbol) (*Symbol, bool) {
	if prev, ok := n.symbols[name]; ok {
		return prev, false
	}
	n.symbols[name] = sym
	return sym, true
}

// DefineFunction adds f to the overload set of name. It fails when name is
// bound to something other than functions.
func (n *Namespace) DefineFunction(name string, f *Function) (*Symbol, bool) {
	prev, ok := n.symbols[name]
	if !ok {
		sym := &Symbol{Kind: SymFunction, Span: f.Span, Functions: []*Function{f}}
		n.symbols[name] = sym
		return sym, true
	}
	if prev.Kind != SymFunction {
		return prev, false
	}
	prev.Functions = append(prev.Functions, f)
	return prev, true
}

// DefineEvent adds e to the overload set of name
func (n *Namespace) DefineEvent(name string, e *Event) (*Symbol, bool) {
	prev, ok := n.symbols[name]
	if !ok {
		sym := &Symbol{Kind: SymEvent, Span: e.Span, Events: []*Event{e}}
		n.symbols[name] = sym
		return sym, true
	}
	if prev.Kind != SymEvent {
		return prev, false
	}
	prev.Events = append(prev.Events, e)
	return prev, true
}

// Bind makes an entry from another namespace visible under name. The entry
// is copied so later overloads never write into the other namespace.
func (n *Namespace) Bind(name string, sym *Symbol) bool {
	if _, ok := n.symbols[name]; ok {
		return false
	}
	cp := *sym
	cp.Functions = sym.Functions[:len(sym.Functions):len(sym.Functions)]
	cp.Events = sym.Events[:len(sym.Events):len(sym.Events)]
	n.symbols[name] = &cp
	return true
}

// FileSymbols lists the unqualified file-level names in sorted order
func (n *Namespace) FileSymbols() []string {
	var names []string
	for name := range n.symbols {
		if !containsDot(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SymbolNames lists every registered name in sorted order
func (n *Namespace) SymbolNames() []string {
	names := make([]string, 0, len(n.symbols))
	for name := range n.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

// AddFunction registers f in the function table and assigns its index
func (n *Namespace) AddFunction(f *Function) {
	f.ID = len(n.Functions)
	n.Functions = append(n.Functions, f)
}

// NewVariable allocates a variable with a namespace-unique id
func (n *Namespace) NewVariable(name string, t Type, kind VarKind, span ast.Span) *Variable {
	n.nextVarID++
	return &Variable{ID: n.nextVarID, Name: name, Type: t, Kind: kind, Span: span}
}

// Contract is a resolved contract, interface or library
type Contract struct {
	Name      string
	Kind      ast.ContractKind
	Span      ast.Span
	Decl      *ast.ContractDecl
	Bases     []*Contract
	BaseSpans []ast.Span
	// Linear is the C3 linearization, most derived first, starting with the contract itself
	Linear    []*Contract
	Fatal     bool
	Functions []*Function
	Variables []*Variable
	Structs   []*Struct
	Enums     []*Enum
	Events    []*Event
	Errors    []*UserError
	// Layout is every storage variable of the contract and its bases in slot order
	Layout []StorageSlot
}

// StorageSlot places one state variable in a contract's layout
type StorageSlot struct {
	Var  *Variable
	Slot uint64
}

// SlotOf returns the slot of v in c's layout
func (c *Contract) SlotOf(v *Variable) (uint64, bool) {
	for _, s := range c.Layout {
		if s.Var == v {
			return s.Slot, true
		}
	}
	return 0, false
}

// IsDerivedFrom reports whether base appears in c's linearization
func (c *Contract) IsDerivedFrom(base *Contract) bool {
	if c == base {
		return true
	}
	for _, b := range c.Linear {
		if b == base {
			return true
		}
	}
	return false
}

func (c *Contract) IsInterface() bool { return c.Kind == ast.KindInterface }
func (c *Contract) IsLibrary() bool   { return c.Kind == ast.KindLibrary }

// IsConcrete reports whether c may be deployed
func (c *Contract) IsConcrete() bool { return c.Kind == ast.KindContract }

// Param is a typed parameter, return value or event/error field
type Param struct {
	Name    string
	Type    Type
	Span    ast.Span
	Indexed bool
	Var     *Variable
}

// OverrideSpec is the resolved override annotation of a function
type OverrideSpec struct {
	Span  ast.Span
	Bases []*Contract
}

// Function is a resolved function, constructor or synthesized assembly function
type Function struct {
	ID         int
	Name       string
	Contract   *Contract
	Kind       ast.FunctionKind
	Span       ast.Span
	Decl       *ast.FunctionDecl
	Params     []*Param
	Returns    []*Param
	Visibility ast.Visibility
	Mutability ast.Mutability
	Virtual    bool
	Override   *OverrideSpec
	HasBody    bool
	Body       []Stmt
	Signature  string
	Selector   []byte

	// Overrides lists the base functions this function overrides
	Overrides []*Function
	// Asm is set for functions defined inside an assembly block
	Asm *YulFunction

	ReadsState  bool
	WritesState bool
}

// QualifiedName is "Contract.name" or "name" for free functions
func (f *Function) QualifiedName() string {
	if f.Contract == nil {
		return f.Name
	}
	return f.Contract.Name + "." + f.Name
}

// ParamTypes returns the parameter types in order
func (f *Function) ParamTypes() []Type {
	ts := make([]Type, len(f.Params))
	for i, p := range f.Params {
		ts[i] = p.Type
	}
	return ts
}

// ReturnTypes returns the return types in order
func (f *Function) ReturnTypes() []Type {
	ts := make([]Type, len(f.Returns))
	for i, p := range f.Returns {
		ts[i] = p.Type
	}
	return ts
}

// IsExternallyVisible reports whether the function belongs to the contract ABI
func (f *Function) IsExternallyVisible() bool {
	return f.Visibility == ast.VisPublic || f.Visibility == ast.VisExternal
}

// VarKind is the storage class of a variable
type VarKind int

const (
	VarLocal VarKind = iota
	VarParam
	VarReturn
	VarState
	VarConstant
	VarAsm
)

// Variable is any named value: local, parameter, return, state, constant or assembly local
type Variable struct {
	ID         int
	Name       string
	Type       Type
	Kind       VarKind
	Span       ast.Span
	Contract   *Contract
	Visibility ast.Visibility
	Immutable  bool
	Storage    ast.StorageLocation
	Init       Expr
	Used       bool

	// Slot is the variable's slot in the layout of its declaring contract
	Slot  uint64
	// Value is the folded value of a constant
	Value *uint256.Int
}

// Field is one member of a struct
type Field struct {
	Name string
	Type Type
	Span ast.Span
}

type Struct struct {
	Name     string
	Contract *Contract
	Span     ast.Span
	Decl     *ast.StructDecl
	Fields   []*Field
}

// QualifiedName is "Contract.Name" or "Name"
func (s *Struct) QualifiedName() string {
	if s.Contract == nil {
		return s.Name
	}
	return s.Contract.Name + "." + s.Name
}

// FieldIndex returns the index of the named field or -1
func (s *Struct) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

type Enum struct {
	Name     string
	Contract *Contract
	Span     ast.Span
	Values   []string
	Spans    []ast.Span
}

func (e *Enum) QualifiedName() string {
	if e.Contract == nil {
		return e.Name
	}
	return e.Contract.Name + "." + e.Name
}

type Event struct {
	Name      string
	Contract  *Contract
	Span      ast.Span
	Fields    []*Param
	Anonymous bool
	Signature string
	Topic     []byte
}

type UserError struct {
	Name      string
	Contract  *Contract
	Span      ast.Span
	Fields    []*Param
	Signature string
	Selector  []byte
}

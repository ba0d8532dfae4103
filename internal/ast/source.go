package ast

// SourceUnit is one parsed source file
type SourceUnit struct {
	Pos    Position
	EndPos Position
	Path   string
	Items  []Decl
}

// Position tracks location information for error reporting and tooling
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// Ident represents any identifier like variable names, type names, etc.
// Example: "ERC20", "balanceOf", "owner", "amount"
type Ident struct {
	Pos    Position
	EndPos Position
	Name   string
}

// ContractKind distinguishes contract-like declarations
type ContractKind int

const (
	KindContract ContractKind = iota
	KindAbstract
	KindInterface
	KindLibrary
)

func (k ContractKind) String() string {
	switch k {
	case KindAbstract:
		return "abstract contract"
	case KindInterface:
		return "interface"
	case KindLibrary:
		return "library"
	default:
		return "contract"
	}
}

// Import pulls the declarations of another unit into scope
// Example: `import "token.sol";`
type Import struct {
	Pos    Position
	EndPos Position
	Path   string
}

// ContractDecl represents a contract, interface or library
// Example: "contract Token is Owned, ERC20 { ... }"
type ContractDecl struct {
	Pos    Position
	EndPos Position
	Kind   ContractKind
	Name   *Ident
	Bases  []*Ident
	Parts  []Decl
}

// StructDecl represents a struct type declaration
// Example: "struct Point { uint256 x; uint256 y; }"
type StructDecl struct {
	Pos    Position
	EndPos Position
	Name   *Ident
	Fields []*Param
}

// EnumDecl represents an enum declaration
// Example: "enum State { Open, Closed }"
type EnumDecl struct {
	Pos    Position
	EndPos Position
	Name   *Ident
	Values []*Ident
}

// EventDecl represents an event declaration
// Example: "event Transfer(address indexed from, address indexed to, uint256 value);"
type EventDecl struct {
	Pos       Position
	EndPos    Position
	Name      *Ident
	Fields    []*Param
	Anonymous bool
}

// ErrorDecl represents a user-defined error
// Example: "error Insufficient(uint256 available, uint256 required);"
type ErrorDecl struct {
	Pos    Position
	EndPos Position
	Name   *Ident
	Fields []*Param
}

// FunctionKind distinguishes regular functions from special entry points
type FunctionKind int

const (
	FuncRegular FunctionKind = iota
	FuncConstructor
	FuncFallback
	FuncReceive
)

// Visibility of a function or state variable
type Visibility int

const (
	VisDefault Visibility = iota
	VisPublic
	VisExternal
	VisInternal
	VisPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "public"
	case VisExternal:
		return "external"
	case VisInternal:
		return "internal"
	case VisPrivate:
		return "private"
	default:
		return ""
	}
}

// Mutability of a function
type Mutability int

const (
	MutNonPayable Mutability = iota
	MutPure
	MutView
	MutPayable
)

func (m Mutability) String() string {
	switch m {
	case MutPure:
		return "pure"
	case MutView:
		return "view"
	case MutPayable:
		return "payable"
	default:
		return "nonpayable"
	}
}

// StorageLocation is the data location annotation of a variable
type StorageLocation int

const (
	LocDefault StorageLocation = iota
	LocMemory
	LocStorage
	LocCalldata
)

// OverrideSpec is the `override` or `override(A, B)` annotation
type OverrideSpec struct {
	Pos    Position
	EndPos Position
	Bases  []*Ident
}

// FunctionDecl represents a function, constructor, fallback or receive
// Example: "function transfer(address to, uint256 amount) public returns (bool) { ... }"
type FunctionDecl struct {
	Pos        Position
	EndPos     Position
	Kind       FunctionKind
	Name       *Ident
	Params     []*Param
	Returns    []*Param
	Visibility Visibility
	Mutability Mutability
	Virtual    bool
	Override   *OverrideSpec
	Body       *BlockStmt
}

// Param is a parameter, return value, struct field or event/error field
// Example: "address indexed from", "uint256 memory", "bool ok"
type Param struct {
	Pos     Position
	EndPos  Position
	Type    TypeExpr
	Storage StorageLocation
	Indexed bool
	Name    *Ident
}

// VarDecl represents a state variable or a file-level constant
// Example: "uint256 public constant MAX = 100;"
type VarDecl struct {
	Pos        Position
	EndPos     Position
	Type       TypeExpr
	Name       *Ident
	Visibility Visibility
	Constant   bool
	Immutable  bool
	Init       Expr
}

// BadDecl represents a declaration that failed to parse
type BadDecl struct {
	Pos     Position
	EndPos  Position
	Message string
}

// Span is a source range
type Span struct {
	Pos    Position
	EndPos Position
}

// SpanOf returns the source range covered by n
func SpanOf(n Node) Span {
	if n == nil {
		return Span{}
	}
	return Span{Pos: n.NodePos(), EndPos: n.NodeEndPos()}
}

// Len is the length of the span on its first line, at least 1
func (s Span) Len() int {
	if s.EndPos.Offset > s.Pos.Offset {
		return s.EndPos.Offset - s.Pos.Offset
	}
	return 1
}

// Before orders spans by file then offset
func (s Span) Before(o Span) bool {
	if s.Pos.Filename != o.Pos.Filename {
		return s.Pos.Filename < o.Pos.Filename
	}
	return s.Pos.Offset < o.Pos.Offset
}

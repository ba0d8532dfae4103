package ast

type Node interface {
	NodePos() Position
	NodeEndPos() Position
	NodeType() NodeType
}

// Decl is a file-level or contract-level declaration
type Decl interface {
	Node
	isDecl()
}

// TypeExpr is a type as written in source
type TypeExpr interface {
	Node
	isType()
}

type Expr interface {
	Node
	isExpr()
}

type Stmt interface {
	Node
	isStmt()
}

type YulStmt interface {
	Node
	isYulStmt()
}

type YulExpr interface {
	Node
	isYulExpr()
}

type NodeType int

const (
	ILLEGAL NodeType = iota
	SOURCE_UNIT
	IDENT
	PARAM
	LOCAL_VAR
	NAMED_ARG
	OVERRIDE_SPEC
	YUL_CASE
	BAD_YUL
	IMPORT
	CONTRACT_DECL
	STRUCT_DECL
	ENUM_DECL
	EVENT_DECL
	ERROR_DECL
	FUNCTION_DECL
	VAR_DECL
	BAD_DECL
	ELEMENTARY_TYPE
	USER_TYPE
	ARRAY_TYPE
	MAPPING_TYPE
	FUNCTION_TYPE
	NUMBER_LIT
	BOOL_LIT
	STRING_LIT
	HEX_LIT
	IDENT_EXPR
	MEMBER_EXPR
	INDEX_EXPR
	CALL_EXPR
	UNARY_EXPR
	BINARY_EXPR
	ASSIGN_EXPR
	TERNARY_EXPR
	TUPLE_EXPR
	ARRAY_LIT
	TYPE_NAME_EXPR
	BAD_EXPR
	BLOCK_STMT
	VAR_DECL_STMT
	EXPR_STMT
	IF_STMT
	FOR_STMT
	WHILE_STMT
	DO_WHILE_STMT
	BREAK_STMT
	CONTINUE_STMT
	RETURN_STMT
	EMIT_STMT
	REVERT_STMT
	ASSEMBLY_STMT
	BAD_STMT
	YUL_BLOCK
	YUL_LET
	YUL_ASSIGN
	YUL_EXPR_STMT
	YUL_IF
	YUL_SWITCH
	YUL_FOR
	YUL_BREAK
	YUL_CONTINUE
	YUL_LEAVE
	YUL_FUNCTION
	YUL_LITERAL
	YUL_IDENT
	YUL_CALL
)

func (su *SourceUnit) NodePos() Position    { return su.Pos }
func (su *SourceUnit) NodeEndPos() Position { return su.EndPos }
func (*SourceUnit) NodeType() NodeType      { return SOURCE_UNIT }

func (i *Ident) NodePos() Position    { return i.Pos }
func (i *Ident) NodeEndPos() Position { return i.EndPos }
func (*Ident) NodeType() NodeType     { return IDENT }

func (p *Param) NodePos() Position    { return p.Pos }
func (p *Param) NodeEndPos() Position { return p.EndPos }
func (*Param) NodeType() NodeType     { return PARAM }

func (lv *LocalVar) NodePos() Position    { return lv.Pos }
func (lv *LocalVar) NodeEndPos() Position { return lv.EndPos }
func (*LocalVar) NodeType() NodeType      { return LOCAL_VAR }

func (na *NamedArg) NodePos() Position    { return na.Pos }
func (na *NamedArg) NodeEndPos() Position { return na.EndPos }
func (*NamedArg) NodeType() NodeType      { return NAMED_ARG }

func (os *OverrideSpec) NodePos() Position    { return os.Pos }
func (os *OverrideSpec) NodeEndPos() Position { return os.EndPos }
func (*OverrideSpec) NodeType() NodeType      { return OVERRIDE_SPEC }

func (yc *YulCase) NodePos() Position    { return yc.Pos }
func (yc *YulCase) NodeEndPos() Position { return yc.EndPos }
func (*YulCase) NodeType() NodeType      { return YUL_CASE }

func (by *BadYul) NodePos() Position    { return by.Pos }
func (by *BadYul) NodeEndPos() Position { return by.EndPos }
func (*BadYul) NodeType() NodeType      { return BAD_YUL }

func (i *Import) NodePos() Position    { return i.Pos }
func (i *Import) NodeEndPos() Position { return i.EndPos }
func (*Import) NodeType() NodeType     { return IMPORT }

func (cd *ContractDecl) NodePos() Position    { return cd.Pos }
func (cd *ContractDecl) NodeEndPos() Position { return cd.EndPos }
func (*ContractDecl) NodeType() NodeType      { return CONTRACT_DECL }

func (sd *StructDecl) NodePos() Position    { return sd.Pos }
func (sd *StructDecl) NodeEndPos() Position { return sd.EndPos }
func (*StructDecl) NodeType() NodeType      { return STRUCT_DECL }

func (ed *EnumDecl) NodePos() Position    { return ed.Pos }
func (ed *EnumDecl) NodeEndPos() Position { return ed.EndPos }
func (*EnumDecl) NodeType() NodeType      { return ENUM_DECL }

func (ed *EventDecl) NodePos() Position    { return ed.Pos }
func (ed *EventDecl) NodeEndPos() Position { return ed.EndPos }
func (*EventDecl) NodeType() NodeType      { return EVENT_DECL }

func (ed *ErrorDecl) NodePos() Position    { return ed.Pos }
func (ed *ErrorDecl) NodeEndPos() Position { return ed.EndPos }
func (*ErrorDecl) NodeType() NodeType      { return ERROR_DECL }

func (fd *FunctionDecl) NodePos() Position    { return fd.Pos }
func (fd *FunctionDecl) NodeEndPos() Position { return fd.EndPos }
func (*FunctionDecl) NodeType() NodeType      { return FUNCTION_DECL }

func (vd *VarDecl) NodePos() Position    { return vd.Pos }
func (vd *VarDecl) NodeEndPos() Position { return vd.EndPos }
func (*VarDecl) NodeType() NodeType      { return VAR_DECL }

func (bd *BadDecl) NodePos() Position    { return bd.Pos }
func (bd *BadDecl) NodeEndPos() Position { return bd.EndPos }
func (*BadDecl) NodeType() NodeType      { return BAD_DECL }

func (et *ElementaryType) NodePos() Position    { return et.Pos }
func (et *ElementaryType) NodeEndPos() Position { return et.EndPos }
func (*ElementaryType) NodeType() NodeType      { return ELEMENTARY_TYPE }

func (ut *UserType) NodePos() Position    { return ut.Pos }
func (ut *UserType) NodeEndPos() Position { return ut.EndPos }
func (*UserType) NodeType() NodeType      { return USER_TYPE }

func (at *ArrayType) NodePos() Position    { return at.Pos }
func (at *ArrayType) NodeEndPos() Position { return at.EndPos }
func (*ArrayType) NodeType() NodeType      { return ARRAY_TYPE }

func (mt *MappingType) NodePos() Position    { return mt.Pos }
func (mt *MappingType) NodeEndPos() Position { return mt.EndPos }
func (*MappingType) NodeType() NodeType      { return MAPPING_TYPE }

func (ft *FunctionType) NodePos() Position    { return ft.Pos }
func (ft *FunctionType) NodeEndPos() Position { return ft.EndPos }
func (*FunctionType) NodeType() NodeType      { return FUNCTION_TYPE }

func (nl *NumberLit) NodePos() Position    { return nl.Pos }
func (nl *NumberLit) NodeEndPos() Position { return nl.EndPos }
func (*NumberLit) NodeType() NodeType      { return NUMBER_LIT }

func (bl *BoolLit) NodePos() Position    { return bl.Pos }
func (bl *BoolLit) NodeEndPos() Position { return bl.EndPos }
func (*BoolLit) NodeType() NodeType      { return BOOL_LIT }

func (sl *StringLit) NodePos() Position    { return sl.Pos }
func (sl *StringLit) NodeEndPos() Position { return sl.EndPos }
func (*StringLit) NodeType() NodeType      { return STRING_LIT }

func (hl *HexLit) NodePos() Position    { return hl.Pos }
func (hl *HexLit) NodeEndPos() Position { return hl.EndPos }
func (*HexLit) NodeType() NodeType      { return HEX_LIT }

func (ie *IdentExpr) NodePos() Position    { return ie.Pos }
func (ie *IdentExpr) NodeEndPos() Position { return ie.EndPos }
func (*IdentExpr) NodeType() NodeType      { return IDENT_EXPR }

func (me *MemberExpr) NodePos() Position    { return me.Pos }
func (me *MemberExpr) NodeEndPos() Position { return me.EndPos }
func (*MemberExpr) NodeType() NodeType      { return MEMBER_EXPR }

func (ie *IndexExpr) NodePos() Position    { return ie.Pos }
func (ie *IndexExpr) NodeEndPos() Position { return ie.EndPos }
func (*IndexExpr) NodeType() NodeType      { return INDEX_EXPR }

func (ce *CallExpr) NodePos() Position    { return ce.Pos }
func (ce *CallExpr) NodeEndPos() Position { return ce.EndPos }
func (*CallExpr) NodeType() NodeType      { return CALL_EXPR }

func (ue *UnaryExpr) NodePos() Position    { return ue.Pos }
func (ue *UnaryExpr) NodeEndPos() Position { return ue.EndPos }
func (*UnaryExpr) NodeType() NodeType      { return UNARY_EXPR }

func (be *BinaryExpr) NodePos() Position    { return be.Pos }
func (be *BinaryExpr) NodeEndPos() Position { return be.EndPos }
func (*BinaryExpr) NodeType() NodeType      { return BINARY_EXPR }

func (ae *AssignExpr) NodePos() Position    { return ae.Pos }
func (ae *AssignExpr) NodeEndPos() Position { return ae.EndPos }
func (*AssignExpr) NodeType() NodeType      { return ASSIGN_EXPR }

func (te *TernaryExpr) NodePos() Position    { return te.Pos }
func (te *TernaryExpr) NodeEndPos() Position { return te.EndPos }
func (*TernaryExpr) NodeType() NodeType      { return TERNARY_EXPR }

func (te *TupleExpr) NodePos() Position    { return te.Pos }
func (te *TupleExpr) NodeEndPos() Position { return te.EndPos }
func (*TupleExpr) NodeType() NodeType      { return TUPLE_EXPR }

func (al *ArrayLit) NodePos() Position    { return al.Pos }
func (al *ArrayLit) NodeEndPos() Position { return al.EndPos }
func (*ArrayLit) NodeType() NodeType      { return ARRAY_LIT }

func (tne *TypeNameExpr) NodePos() Position    { return tne.Pos }
func (tne *TypeNameExpr) NodeEndPos() Position { return tne.EndPos }
func (*TypeNameExpr) NodeType() NodeType       { return TYPE_NAME_EXPR }

func (be *BadExpr) NodePos() Position    { return be.Pos }
func (be *BadExpr) NodeEndPos() Position { return be.EndPos }
func (*BadExpr) NodeType() NodeType      { return BAD_EXPR }

func (bs *BlockStmt) NodePos() Position    { return bs.Pos }
func (bs *BlockStmt) NodeEndPos() Position { return bs.EndPos }
func (*BlockStmt) NodeType() NodeType      { return BLOCK_STMT }

func (vds *VarDeclStmt) NodePos() Position    { return vds.Pos }
func (vds *VarDeclStmt) NodeEndPos() Position { return vds.EndPos }
func (*VarDeclStmt) NodeType() NodeType       { return VAR_DECL_STMT }

func (es *ExprStmt) NodePos() Position    { return es.Pos }
func (es *ExprStmt) NodeEndPos() Position { return es.EndPos }
func (*ExprStmt) NodeType() NodeType      { return EXPR_STMT }

func (is *IfStmt) NodePos() Position    { return is.Pos }
func (is *IfStmt) NodeEndPos() Position { return is.EndPos }
func (*IfStmt) NodeType() NodeType      { return IF_STMT }

func (fs *ForStmt) NodePos() Position    { return fs.Pos }
func (fs *ForStmt) NodeEndPos() Position { return fs.EndPos }
func (*ForStmt) NodeType() NodeType      { return FOR_STMT }

func (ws *WhileStmt) NodePos() Position    { return ws.Pos }
func (ws *WhileStmt) NodeEndPos() Position { return ws.EndPos }
func (*WhileStmt) NodeType() NodeType      { return WHILE_STMT }

func (dws *DoWhileStmt) NodePos() Position    { return dws.Pos }
func (dws *DoWhileStmt) NodeEndPos() Position { return dws.EndPos }
func (*DoWhileStmt) NodeType() NodeType       { return DO_WHILE_STMT }

func (bs *BreakStmt) NodePos() Position    { return bs.Pos }
func (bs *BreakStmt) NodeEndPos() Position { return bs.EndPos }
func (*BreakStmt) NodeType() NodeType      { return BREAK_STMT }

func (cs *ContinueStmt) NodePos() Position    { return cs.Pos }
func (cs *ContinueStmt) NodeEndPos() Position { return cs.EndPos }
func (*ContinueStmt) NodeType() NodeType      { return CONTINUE_STMT }

func (rs *ReturnStmt) NodePos() Position    { return rs.Pos }
func (rs *ReturnStmt) NodeEndPos() Position { return rs.EndPos }
func (*ReturnStmt) NodeType() NodeType      { return RETURN_STMT }

func (es *EmitStmt) NodePos() Position    { return es.Pos }
func (es *EmitStmt) NodeEndPos() Position { return es.EndPos }
func (*EmitStmt) NodeType() NodeType      { return EMIT_STMT }

func (rs *RevertStmt) NodePos() Position    { return rs.Pos }
func (rs *RevertStmt) NodeEndPos() Position { return rs.EndPos }
func (*RevertStmt) NodeType() NodeType      { return REVERT_STMT }

func (as *AssemblyStmt) NodePos() Position    { return as.Pos }
func (as *AssemblyStmt) NodeEndPos() Position { return as.EndPos }
func (*AssemblyStmt) NodeType() NodeType      { return ASSEMBLY_STMT }

func (bs *BadStmt) NodePos() Position    { return bs.Pos }
func (bs *BadStmt) NodeEndPos() Position { return bs.EndPos }
func (*BadStmt) NodeType() NodeType      { return BAD_STMT }

func (yb *YulBlock) NodePos() Position    { return yb.Pos }
func (yb *YulBlock) NodeEndPos() Position { return yb.EndPos }
func (*YulBlock) NodeType() NodeType      { return YUL_BLOCK }

func (yl *YulLet) NodePos() Position    { return yl.Pos }
func (yl *YulLet) NodeEndPos() Position { return yl.EndPos }
func (*YulLet) NodeType() NodeType      { return YUL_LET }

func (ya *YulAssign) NodePos() Position    { return ya.Pos }
func (ya *YulAssign) NodeEndPos() Position { return ya.EndPos }
func (*YulAssign) NodeType() NodeType      { return YUL_ASSIGN }

func (yes *YulExprStmt) NodePos() Position    { return yes.Pos }
func (yes *YulExprStmt) NodeEndPos() Position { return yes.EndPos }
func (*YulExprStmt) NodeType() NodeType       { return YUL_EXPR_STMT }

func (yi *YulIf) NodePos() Position    { return yi.Pos }
func (yi *YulIf) NodeEndPos() Position { return yi.EndPos }
func (*YulIf) NodeType() NodeType      { return YUL_IF }

func (ys *YulSwitch) NodePos() Position    { return ys.Pos }
func (ys *YulSwitch) NodeEndPos() Position { return ys.EndPos }
func (*YulSwitch) NodeType() NodeType      { return YUL_SWITCH }

func (yf *YulFor) NodePos() Position    { return yf.Pos }
func (yf *YulFor) NodeEndPos() Position { return yf.EndPos }
func (*YulFor) NodeType() NodeType      { return YUL_FOR }

func (yb *YulBreak) NodePos() Position    { return yb.Pos }
func (yb *YulBreak) NodeEndPos() Position { return yb.EndPos }
func (*YulBreak) NodeType() NodeType      { return YUL_BREAK }

func (yc *YulContinue) NodePos() Position    { return yc.Pos }
func (yc *YulContinue) NodeEndPos() Position { return yc.EndPos }
func (*YulContinue) NodeType() NodeType      { return YUL_CONTINUE }

func (yl *YulLeave) NodePos() Position    { return yl.Pos }
func (yl *YulLeave) NodeEndPos() Position { return yl.EndPos }
func (*YulLeave) NodeType() NodeType      { return YUL_LEAVE }

func (yf *YulFunction) NodePos() Position    { return yf.Pos }
func (yf *YulFunction) NodeEndPos() Position { return yf.EndPos }
func (*YulFunction) NodeType() NodeType      { return YUL_FUNCTION }

func (yl *YulLiteral) NodePos() Position    { return yl.Pos }
func (yl *YulLiteral) NodeEndPos() Position { return yl.EndPos }
func (*YulLiteral) NodeType() NodeType      { return YUL_LITERAL }

func (yi *YulIdent) NodePos() Position    { return yi.Pos }
func (yi *YulIdent) NodeEndPos() Position { return yi.EndPos }
func (*YulIdent) NodeType() NodeType      { return YUL_IDENT }

func (yc *YulCall) NodePos() Position    { return yc.Pos }
func (yc *YulCall) NodeEndPos() Position { return yc.EndPos }
func (*YulCall) NodeType() NodeType      { return YUL_CALL }

func (*Import) isDecl() {}
func (*ContractDecl) isDecl() {}
func (*StructDecl) isDecl() {}
func (*EnumDecl) isDecl() {}
func (*EventDecl) isDecl() {}
func (*ErrorDecl) isDecl() {}
func (*FunctionDecl) isDecl() {}
func (*VarDecl) isDecl() {}
func (*BadDecl) isDecl() {}

func (*ElementaryType) isType() {}
func (*UserType) isType() {}
func (*ArrayType) isType() {}
func (*MappingType) isType() {}
func (*FunctionType) isType() {}

func (*NumberLit) isExpr() {}
func (*BoolLit) isExpr() {}
func (*StringLit) isExpr() {}
func (*HexLit) isExpr() {}
func (*IdentExpr) isExpr() {}
func (*MemberExpr) isExpr() {}
func (*IndexExpr) isExpr() {}
func (*CallExpr) isExpr() {}
func (*UnaryExpr) isExpr() {}
func (*BinaryExpr) isExpr() {}
func (*AssignExpr) isExpr() {}
func (*TernaryExpr) isExpr() {}
func (*TupleExpr) isExpr() {}
func (*ArrayLit) isExpr() {}
func (*TypeNameExpr) isExpr() {}
func (*BadExpr) isExpr() {}

func (*BlockStmt) isStmt() {}
func (*VarDeclStmt) isStmt() {}
func (*ExprStmt) isStmt() {}
func (*IfStmt) isStmt() {}
func (*ForStmt) isStmt() {}
func (*WhileStmt) isStmt() {}
func (*DoWhileStmt) isStmt() {}
func (*BreakStmt) isStmt() {}
func (*ContinueStmt) isStmt() {}
func (*ReturnStmt) isStmt() {}
func (*EmitStmt) isStmt() {}
func (*RevertStmt) isStmt() {}
func (*AssemblyStmt) isStmt() {}
func (*BadStmt) isStmt() {}

func (*YulBlock) isYulStmt() {}
func (*YulLet) isYulStmt() {}
func (*YulAssign) isYulStmt() {}
func (*YulExprStmt) isYulStmt() {}
func (*YulIf) isYulStmt() {}
func (*YulSwitch) isYulStmt() {}
func (*YulFor) isYulStmt() {}
func (*YulBreak) isYulStmt() {}
func (*YulContinue) isYulStmt() {}
func (*YulLeave) isYulStmt() {}
func (*YulFunction) isYulStmt() {}

func (*YulLiteral) isYulExpr() {}
func (*YulIdent) isYulExpr() {}
func (*YulCall) isYulExpr() {}

func (*BadYul) isYulStmt() {}
func (*BadYul) isYulExpr() {}

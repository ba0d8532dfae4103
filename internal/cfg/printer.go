package cfg

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"polyc/internal/ns"
)

// Printer renders CFGs as stable text. Block numbering, value names and
// phi edges follow block order, so identical input prints identically.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new CFG printer
func NewPrinter() *Printer {
	return &Printer{}
}

// Print returns the text of one function
func Print(f *Function) string {
	p := NewPrinter()
	p.printFunction(f)
	return p.output.String()
}

// PrintAll renders several functions separated by blank lines
func PrintAll(fs []*Function) string {
	p := NewPrinter()
	for i, f := range fs {
		if i > 0 {
			p.output.WriteString("\n")
		}
		p.printFunction(f)
	}
	return p.output.String()
}

func (f *Function) String() string { return Print(f) }

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printFunction(f *Function) {
	params := make([]string, len(f.Params))
	for i, v := range f.Params {
		params[i] = valueName(v) + " " + v.Type.String()
	}
	header := fmt.Sprintf("function %s(%s)", f.Name, strings.Join(params, ", "))
	if len(f.Returns) > 0 {
		rets := make([]string, len(f.Returns))
		for i, t := range f.Returns {
			rets[i] = t.String()
		}
		header += " returns (" + strings.Join(rets, ", ") + ")"
	}
	p.writeLine("%s", header)

	for _, b := range f.Blocks {
		p.writeLine("%s: # %s", b.Label(), b.Name)
		p.indent++
		for _, phi := range b.Phis {
			p.printPhi(phi)
		}
		for _, inst := range b.Instrs {
			p.writeLine("%s", instructionString(inst))
		}
		if b.Term != nil {
			p.writeLine("%s", instructionString(b.Term))
		}
		p.indent--
	}
}

func (p *Printer) printPhi(phi *Phi) {
	edges := make([]string, len(phi.Edges))
	for i, e := range phi.Edges {
		edges[i] = fmt.Sprintf("[%s, %s]", valueName(e.Value), e.Block.Label())
	}
	p.writeLine("# phi %s = %s", valueName(phi.Result), strings.Join(edges, ", "))
}

// valueName renders a constant as its literal and any other value as %name
func valueName(v *Value) string {
	if v == nil {
		return "<nil>"
	}
	if v.IsConst() {
		return constString(v)
	}
	if v.Name != "" {
		return "%" + v.Name + "." + strconv.Itoa(v.Version)
	}
	return "%" + strconv.Itoa(v.ID)
}

func constString(v *Value) string {
	switch t := v.Type.(type) {
	case ns.BoolType:
		if v.Const.IsZero() {
			return "false"
		}
		return "true"
	case ns.IntType, ns.EnumType:
		if isSigned(t) && v.Const.Sign() < 0 {
			return "-" + new(uint256.Int).Neg(v.Const).ToBig().String()
		}
		return v.Const.ToBig().String()
	}
	return v.Const.Hex()
}

func valueList(vs []*Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = valueName(v)
	}
	return strings.Join(parts, ", ")
}

func assign(results []*Value, rest string) string {
	if len(results) == 0 {
		return rest
	}
	return valueList(results) + " = " + rest
}

var signedOps = map[ns.BinOp]string{
	ns.OpDiv: "sdiv",
	ns.OpMod: "smod",
	ns.OpShr: "sar",
}

var signedCmps = map[ns.CmpOp]string{
	ns.CmpLt: "slt",
	ns.CmpLe: "sle",
	ns.CmpGt: "sgt",
	ns.CmpGe: "sge",
}

func binaryName(i *Binary) string {
	if i.Signed {
		if name, ok := signedOps[i.Op]; ok {
			return name
		}
	}
	return i.Op.String()
}

func compareName(i *Compare) string {
	if i.Signed {
		if name, ok := signedCmps[i.Op]; ok {
			return name
		}
	}
	return i.Op.String()
}

func checked(c bool) string {
	if c {
		return "checked "
	}
	return ""
}

func fnName(f *ns.Function) string {
	if f == nil {
		return "<unresolved>"
	}
	return functionName(f)
}

func instructionString(inst Instruction) string {
	switch i := inst.(type) {
	case *Binary:
		return assign(i.Results(), fmt.Sprintf("%s %s%s %s, %s",
			binaryName(i), checked(i.Checked), i.Result.Type, valueName(i.Left), valueName(i.Right)))
	case *Compare:
		return assign(i.Results(), fmt.Sprintf("%s %s %s, %s",
			compareName(i), i.Left.Type, valueName(i.Left), valueName(i.Right)))
	case *Unary:
		return assign(i.Results(), fmt.Sprintf("%s %s%s %s", i.Op, checked(i.Checked), i.Result.Type, valueName(i.X)))
	case *Cast:
		return assign(i.Results(), fmt.Sprintf("%s %s %s to %s", i.Kind, i.X.Type, valueName(i.X), i.Result.Type))
	case *StorageLoad:
		return assign(i.Results(), fmt.Sprintf("load storage %s %s", i.Result.Type, valueName(i.Slot)))
	case *StorageStore:
		return fmt.Sprintf("store storage %s, %s", valueName(i.Slot), valueName(i.Value))
	case *StorageIndex:
		return assign(i.Results(), fmt.Sprintf("storage_index %s %s, %s", i.Container, valueName(i.Base), valueName(i.Index)))
	case *ArrayLength:
		where := "memory"
		if i.Storage {
			where = "storage"
		}
		return assign(i.Results(), fmt.Sprintf("array_length %s %s", where, valueName(i.Array)))
	case *MemoryLoad:
		return assign(i.Results(), fmt.Sprintf("load memory %s %s", i.Result.Type, valueName(i.Addr)))
	case *MemoryStore:
		return fmt.Sprintf("store memory %s, %s", valueName(i.Addr), valueName(i.Value))
	case *MemoryCopy:
		return fmt.Sprintf("memcpy %s, %s, %d", valueName(i.Dst), valueName(i.Src), i.Size)
	case *FieldAddr:
		return assign(i.Results(), fmt.Sprintf("field_addr %s %s, %d # %s",
			i.Struct.QualifiedName(), valueName(i.Base), i.Offset, i.Struct.Fields[i.Field].Name))
	case *ElementAddr:
		return assign(i.Results(), fmt.Sprintf("element_addr %s, %s, %d", valueName(i.Array), valueName(i.Index), i.ElemSize))
	case *Alloc:
		s := fmt.Sprintf("alloc %s %s", i.Result.Type, valueName(i.Size))
		if len(i.Init) > 0 {
			s += " init 0x" + hex.EncodeToString(i.Init)
		}
		return assign(i.Results(), s)
	case *Call:
		return assign(i.Rets, fmt.Sprintf("call %s(%s)", fnName(i.Fn), valueList(i.Args)))
	case *ExternalCall:
		return assign(i.Rets, fmt.Sprintf("call external %s %s(%s)", valueName(i.Address), fnName(i.Fn), valueList(i.Args)))
	case *PointerCall:
		return assign(i.Rets, fmt.Sprintf("call pointer %s(%s)", valueName(i.Pointer), valueList(i.Args)))
	case *BuiltinCall:
		return assign(i.Rets, fmt.Sprintf("builtin %s(%s) # %s", i.Op, valueList(i.Args), i.Name))
	case *FunctionAddr:
		return assign(i.Results(), "function_addr "+fnName(i.Fn))
	case *Emit:
		return fmt.Sprintf("emit %s topics(%s) data(%s)", i.Event.Name, valueList(i.Topics), valueList(i.Data))
	case *Native:
		return assign(i.Rets, fmt.Sprintf("%s(%s)", i.Name, valueList(i.Args)))

	case *Branch:
		return "branch " + i.Target.Label()
	case *BranchCond:
		return fmt.Sprintf("branchcond %s, %s, %s", valueName(i.Cond), i.True.Label(), i.False.Label())
	case *Switch:
		parts := []string{valueName(i.Value)}
		for _, c := range i.Cases {
			parts = append(parts, fmt.Sprintf("[%s: %s]", c.Value.ToBig(), c.Target.Label()))
		}
		parts = append(parts, "default "+i.Default.Label())
		return "switch " + strings.Join(parts, ", ")
	case *Return:
		switch {
		case len(i.Data) > 0:
			return "return data " + valueList(i.Data)
		case len(i.Values) > 0:
			return "return " + valueList(i.Values)
		}
		return "return"
	case *Unreachable:
		return "unreachable"
	case *AssertFailure:
		s := "assert-failure"
		switch {
		case len(i.Data) > 0:
			s += " data " + valueList(i.Data)
		case len(i.Selector) > 0:
			s += " 0x" + hex.EncodeToString(i.Selector)
			if len(i.Args) > 0 {
				s += " " + valueList(i.Args)
			}
		}
		return s
	}
	return fmt.Sprintf("<%T>", inst)
}

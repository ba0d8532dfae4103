package builtins

import "sort"

// Access is the state access a builtin performs
type Access int

const (
	None Access = iota
	Read
	Write
)

// Builtin describes one builtin of the source language or of inline assembly
type Builtin struct {
	Name    string
	Args    int
	Returns int
	Access  Access
	// Hook marks builtins whose lowering is supplied by the target
	Hook bool
	// Terminates marks assembly builtins that end execution
	Terminates bool
}

// AsmPrefix qualifies assembly builtin names in target builtin tables
const AsmPrefix = "asm."

func hook(name string, args, returns int, access Access) Builtin {
	return Builtin{Name: name, Args: args, Returns: returns, Access: access, Hook: true}
}

func native(name string, args, returns int) Builtin {
	return Builtin{Name: name, Args: args, Returns: returns}
}

// Source maps source-level builtin names to their definitions. Argument
// counts of -1 are checked by the resolver.
var Source = map[string]Builtin{
	"msg.sender":             hook("msg.sender", 0, 1, Read),
	"msg.value":              hook("msg.value", 0, 1, Read),
	"msg.data":               hook("msg.data", 0, 1, Read),
	"block.number":           hook("block.number", 0, 1, Read),
	"block.timestamp":        hook("block.timestamp", 0, 1, Read),
	"tx.origin":              hook("tx.origin", 0, 1, Read),
	"gasleft":                hook("gasleft", 0, 1, Read),
	"keccak256":              hook("keccak256", 1, 1, None),
	"this":                   hook("this", 0, 1, Read),
	"address.balance":        hook("address.balance", 1, 1, Read),
	"address.transfer":       hook("address.transfer", 2, 0, Write),
	"address.send":           hook("address.send", 2, 1, Write),
	"abi.encode":             hook("abi.encode", -1, 1, None),
	"abi.encodePacked":       hook("abi.encodePacked", -1, 1, None),
	"abi.encodeWithSelector": hook("abi.encodeWithSelector", -1, 1, None),
	"array.push":             {Name: "array.push", Args: 2, Access: Write},
	"array.pop":              {Name: "array.pop", Args: 1, Access: Write},
}

// Asm maps inline assembly builtin names to their definitions
var Asm = map[string]Builtin{
	"add":        native("add", 2, 1),
	"sub":        native("sub", 2, 1),
	"mul":        native("mul", 2, 1),
	"div":        native("div", 2, 1),
	"sdiv":       native("sdiv", 2, 1),
	"mod":        native("mod", 2, 1),
	"smod":       native("smod", 2, 1),
	"exp":        native("exp", 2, 1),
	"not":        native("not", 1, 1),
	"lt":         native("lt", 2, 1),
	"gt":         native("gt", 2, 1),
	"slt":        native("slt", 2, 1),
	"sgt":        native("sgt", 2, 1),
	"eq":         native("eq", 2, 1),
	"iszero":     native("iszero", 1, 1),
	"and":        native("and", 2, 1),
	"or":         native("or", 2, 1),
	"xor":        native("xor", 2, 1),
	"shl":        native("shl", 2, 1),
	"shr":        native("shr", 2, 1),
	"sar":        native("sar", 2, 1),
	"addmod":     native("addmod", 3, 1),
	"mulmod":     native("mulmod", 3, 1),
	"signextend": native("signextend", 2, 1),
	"byte":       native("byte", 2, 1),
	"mload":      native("mload", 1, 1),
	"mstore":     native("mstore", 2, 0),
	"mstore8":    native("mstore8", 2, 0),
	"msize":      native("msize", 0, 1),
	"pop":        native("pop", 1, 0),
	"sload":      {Name: "sload", Args: 1, Returns: 1, Access: Read},
	"sstore":     {Name: "sstore", Args: 2, Access: Write},
	"return":     {Name: "return", Args: 2, Terminates: true},
	"revert":     {Name: "revert", Args: 2, Terminates: true},
	"stop":       {Name: "stop", Terminates: true},
	"invalid":    {Name: "invalid", Terminates: true},

	"caller":       hook("caller", 0, 1, Read),
	"callvalue":    hook("callvalue", 0, 1, Read),
	"gas":          hook("gas", 0, 1, Read),
	"address":      hook("address", 0, 1, Read),
	"balance":      hook("balance", 1, 1, Read),
	"selfbalance":  hook("selfbalance", 0, 1, Read),
	"timestamp":    hook("timestamp", 0, 1, Read),
	"number":       hook("number", 0, 1, Read),
	"origin":       hook("origin", 0, 1, Read),
	"chainid":      hook("chainid", 0, 1, Read),
	"calldataload": hook("calldataload", 1, 1, Read),
	"calldatasize": hook("calldatasize", 0, 1, Read),
	"keccak256":    hook("keccak256", 2, 1, None),
}

// IsHook reports whether the named source or assembly builtin is lowered by the target
func IsHook(name string) bool {
	if b, ok := Source[name]; ok {
		return b.Hook
	}
	if len(name) > len(AsmPrefix) && name[:len(AsmPrefix)] == AsmPrefix {
		return Asm[name[len(AsmPrefix):]].Hook
	}
	return false
}

// HookNames lists every target-lowered builtin in sorted order, assembly
// builtins carrying AsmPrefix
func HookNames() []string {
	var names []string
	for name, b := range Source {
		if b.Hook {
			names = append(names, name)
		}
	}
	for name, b := range Asm {
		if b.Hook {
			names = append(names, AsmPrefix+name)
		}
	}
	sort.Strings(names)
	return names
}

// AsmNames lists the assembly builtin names, for suggestions
func AsmNames() []string {
	names := make([]string, 0, len(Asm))
	for name := range Asm {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package ns

// Promote returns the common type both operands of an integer binary
// operation are extended to. The wider type wins; when signedness differs
// the result is signed and at least 8 bits wider than the unsigned operand,
// capped at 256 bits.
func Promote(a, b IntType) IntType {
	switch {
	case a.Signed == b.Signed:
		return IntType{Bits: max(a.Bits, b.Bits), Signed: a.Signed}
	case a.Signed:
		return Int(min(256, max(a.Bits, b.Bits+8)))
	default:
		return Int(min(256, max(a.Bits+8, b.Bits)))
	}
}

// Conversion is the outcome of checking one implicit conversion
type Conversion struct {
	OK bool
	// Cost is 0 for an exact match and 1 for any implicit conversion
	Cost   int
	Reason string
}

var exact = Conversion{OK: true}
var widened = Conversion{OK: true, Cost: 1}

func rejected(reason string) Conversion {
	return Conversion{Reason: reason}
}

// ImplicitConversion checks whether a non-literal value of type from may be
// used where to is expected. Widening integer casts are allowed; narrowing,
// signedness-changing and bytes/string conversions are not.
func ImplicitConversion(from, to Type) Conversion {
	if IsUnresolved(from) || IsUnresolved(to) || Equal(from, to) {
		return exact
	}

	switch f := from.(type) {
	case IntType:
		t, ok := to.(IntType)
		if !ok {
			return rejected("")
		}
		if f.Signed != t.Signed {
			return rejected("conversion changes signedness")
		}
		if t.Bits < f.Bits {
			return rejected("conversion truncates")
		}
		return widened
	case AddressType:
		if t, ok := to.(AddressType); ok && f.Bits == t.Bits && f.Payable && !t.Payable {
			return widened
		}
	case ContractType:
		if t, ok := to.(ContractType); ok && f.Def.IsDerivedFrom(t.Def) {
			return widened
		}
	case FixedBytesType:
		if t, ok := to.(FixedBytesType); ok {
			if t.N < f.N {
				return rejected("conversion truncates")
			}
			return widened
		}
	case StringType:
		if _, ok := to.(BytesType); ok {
			return rejected("string to bytes conversion must be explicit")
		}
	case BytesType:
		if _, ok := to.(StringType); ok {
			return rejected("bytes to string conversion must be explicit")
		}
	case FunctionType:
		if t, ok := to.(FunctionType); ok && f.External == t.External &&
			EqualList(f.Params, t.Params) && EqualList(f.Returns, t.Returns) &&
			mutabilityRank(f.Mutability) <= mutabilityRank(t.Mutability) {
			return widened
		}
	}
	return rejected("")
}

func mutabilityRank(m string) int {
	switch m {
	case "pure":
		return 0
	case "view":
		return 1
	case "payable":
		return 3
	default:
		return 2
	}
}

// ExplicitConversion checks a type conversion expression such as uint8(x)
func ExplicitConversion(from, to Type, target Target) bool {
	if ImplicitConversion(from, to).OK {
		return true
	}
	switch f := from.(type) {
	case IntType:
		switch t := to.(type) {
		case IntType:
			return f.Signed == t.Signed || f.Bits == t.Bits
		case AddressType:
			return !f.Signed && f.Bits == t.Bits
		case FixedBytesType:
			return !f.Signed && f.Bits == t.N*8
		case EnumType:
			return !f.Signed
		}
	case EnumType:
		t, ok := to.(IntType)
		return ok && !t.Signed
	case AddressType:
		switch t := to.(type) {
		case IntType:
			return !t.Signed && t.Bits == f.Bits
		case AddressType:
			return true
		case ContractType:
			return true
		case FixedBytesType:
			return t.N*8 == f.Bits
		}
	case ContractType:
		switch t := to.(type) {
		case AddressType:
			return true
		case ContractType:
			return t.Def.IsDerivedFrom(f.Def)
		}
	case FixedBytesType:
		switch t := to.(type) {
		case FixedBytesType:
			return true
		case IntType:
			return !t.Signed && t.Bits == f.N*8
		case AddressType:
			return f.N*8 == t.Bits
		}
	case BytesType:
		switch to.(type) {
		case StringType:
			return true
		case FixedBytesType:
			return true
		}
	case StringType:
		_, ok := to.(BytesType)
		return ok
	}
	return false
}

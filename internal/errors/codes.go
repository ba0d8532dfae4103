package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Error codes for the polyc compiler
// These codes are used in diagnostics and documentation
// to provide consistent error identification across the toolchain.
//
// Error code ranges:
// E0001-E0099: Semantic analysis errors
// E0100-E0199: Parser errors
// E0200-E0299: Type system errors
// E0300-E0399: Import/module errors
// E0400-E0499: Contract and inheritance errors
// E0500-E0599: Inline assembly and target errors
// W0001-W0099: Warnings

const (
	// E0001: Name resolution errors
	ErrorUndefinedName = "E0001"

	// E0002: Function resolution errors
	ErrorUndefinedFunction = "E0002"

	// E0003: Type compatibility errors
	ErrorTypeMismatch = "E0003"

	// E0004: Return statement errors
	ErrorInvalidReturn = "E0004"

	// E0005: Struct field access errors
	ErrorFieldNotFound = "E0005"

	// E0006: Duplicate field or named argument
	ErrorDuplicateField = "E0006"

	// E0007: Missing required field or named argument
	ErrorMissingField = "E0007"

	// E0008: Binary operation type errors
	ErrorInvalidBinaryOperation = "E0008"

	// E0009: Duplicate declaration errors
	ErrorDuplicateDeclaration = "E0009"

	// E0010: Misplaced statement such as break outside of a loop
	ErrorInvalidStatement = "E0010"

	// E0012: Constructor validation errors
	ErrorInvalidConstructor = "E0012"

	// E0013: Function call argument errors
	ErrorInvalidArguments = "E0013"

	// E0014: Assignment validation errors
	ErrorInvalidAssignment = "E0014"

	// E0015: Unary operation errors
	ErrorInvalidOperation = "E0015"

	// E0016: Generic semantic error
	ErrorGenericSemantic = "E0016"

	// E0017: Mutability violations
	ErrorMutability = "E0017"

	// E0018: Numeric overflow errors
	ErrorNumericOverflow = "E0018"

	// E0020: Void function in expression context
	ErrorVoidInExpression = "E0020"

	// E0100: Syntax errors
	ErrorParse = "E0100"

	// E0200: Invalid implicit or explicit conversion
	ErrorInvalidConversion = "E0200"

	// E0201: Expression is not a compile-time constant
	ErrorNotConstant = "E0201"

	// E0202: Division by zero in a constant expression
	ErrorConstantDivisionByZero = "E0202"

	// E0203: Invalid type declaration (recursive struct, bad array length)
	ErrorInvalidType = "E0203"

	// E0300: Import could not be resolved
	ErrorUnresolvedImport = "E0300"

	// E0301: Import cycle between source units
	ErrorImportCycle = "E0301"

	// E0400: Base contract errors
	ErrorBaseContract = "E0400"

	// E0401: Inheritance linearization failure (fatal for the contract)
	ErrorLinearization = "E0401"

	// E0402: Override specification errors
	ErrorOverride = "E0402"

	// E0403: Missing implementation in a non-abstract contract
	ErrorMissingImplementation = "E0403"

	// E0404: No overload matches the call
	ErrorNoMatchingOverload = "E0404"

	// E0405: More than one overload matches with equal cost
	ErrorAmbiguousCall = "E0405"

	// E0500: Inline assembly errors
	ErrorAssembly = "E0500"

	// E0501: Builtin not supported by the target
	ErrorUnsupportedBuiltin = "E0501"
)

const (
	// W0001: Unused variable warnings
	WarningUnusedVariable = "W0001"

	// W0002: Unreachable code warnings
	WarningUnreachableCode = "W0002"

	// W0003: Unused parameter warnings
	WarningUnusedParameter = "W0003"

	// W0004: Function mutability could be stricter
	WarningMutability = "W0004"
)

// GetErrorDescription returns a human-readable description of an error code,
// or an empty string for an unknown code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUndefinedName:
		return "Name is not declared in this scope"
	case ErrorUndefinedFunction:
		return "Function is not declared"
	case ErrorTypeMismatch:
		return "Type mismatch between expected and actual types"
	case ErrorInvalidReturn:
		return "Return statement does not match the function's returns"
	case ErrorFieldNotFound:
		return "Field does not exist on struct"
	case ErrorDuplicateField:
		return "Field or named argument specified more than once"
	case ErrorMissingField:
		return "Required field or named argument missing"
	case ErrorInvalidBinaryOperation:
		return "Invalid binary operation between types"
	case ErrorDuplicateDeclaration:
		return "Name is already declared in this scope"
	case ErrorInvalidStatement:
		return "Statement is not allowed here"
	case ErrorInvalidConstructor:
		return "Invalid constructor definition"
	case ErrorInvalidArguments:
		return "Function call has invalid arguments"
	case ErrorInvalidAssignment:
		return "Invalid assignment operation"
	case ErrorInvalidOperation:
		return "Operation is not valid for its operand"
	case ErrorGenericSemantic:
		return "Semantic analysis error"
	case ErrorMutability:
		return "Function mutability does not allow this operation"
	case ErrorNumericOverflow:
		return "Value does not fit in the target type"
	case ErrorVoidInExpression:
		return "Function without return values used as a value"
	case ErrorParse:
		return "Syntax error"
	case ErrorInvalidConversion:
		return "Conversion between types is not allowed"
	case ErrorNotConstant:
		return "Expression must be a compile-time constant"
	case ErrorConstantDivisionByZero:
		return "Division by zero in constant expression"
	case ErrorInvalidType:
		return "Invalid type declaration"
	case ErrorUnresolvedImport:
		return "Import could not be resolved"
	case ErrorImportCycle:
		return "Source units import each other"
	case ErrorBaseContract:
		return "Invalid base contract"
	case ErrorLinearization:
		return "Inheritance graph cannot be linearized"
	case ErrorOverride:
		return "Invalid override specification"
	case ErrorMissingImplementation:
		return "Contract does not implement all functions"
	case ErrorNoMatchingOverload:
		return "No overloaded function matches the call"
	case ErrorAmbiguousCall:
		return "Call matches more than one overloaded function"
	case ErrorAssembly:
		return "Invalid inline assembly"
	case ErrorUnsupportedBuiltin:
		return "Builtin is not available on the selected target"
	case WarningUnusedVariable:
		return "Variable is declared but never used"
	case WarningUnreachableCode:
		return "Code is unreachable"
	case WarningUnusedParameter:
		return "Parameter is never used"
	case WarningMutability:
		return "Function can be declared with stricter mutability"
	default:
		return ""
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code == "":
		return "Unknown"
	case code[0] == 'W':
		return "Warning"
	case code >= "E0001" && code < "E0100":
		return "Semantic Analysis"
	case code >= "E0100" && code < "E0200":
		return "Parser"
	case code >= "E0200" && code < "E0300":
		return "Type System"
	case code >= "E0300" && code < "E0400":
		return "Import/Module"
	case code >= "E0400" && code < "E0500":
		return "Contract"
	case code >= "E0500" && code < "E0600":
		return "Assembly/Target"
	default:
		return "Unknown"
	}
}

// Explain renders what a diagnostic code means, for "polyc explain"
func Explain(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	desc := GetErrorDescription(code)
	if desc == "" {
		return "", pkgerrors.Errorf("unknown diagnostic code '%s'", code)
	}
	severity := "error"
	if IsWarning(code) {
		severity = "warning"
	}
	return fmt.Sprintf("%s: %s\n  category: %s\n  severity: %s\n", code, desc, GetErrorCategory(code), severity), nil
}

package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		code     string
		category string
	}{
		{ErrorUndefinedName, "Semantic Analysis"},
		{ErrorParse, "Parser"},
		{ErrorNotConstant, "Type System"},
		{ErrorImportCycle, "Import/Module"},
		{ErrorLinearization, "Contract"},
		{ErrorUnsupportedBuiltin, "Assembly/Target"},
		{WarningMutability, "Warning"},
		{"", "Unknown"},
		{"E0900", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))
		})
	}
	assert.True(t, IsWarning(WarningUnusedVariable))
	assert.False(t, IsWarning(ErrorParse))
	assert.False(t, IsWarning(""))
}

func TestEveryCodeIsDescribed(t *testing.T) {
	codes := []string{
		ErrorUndefinedName, ErrorUndefinedFunction, ErrorTypeMismatch, ErrorInvalidReturn,
		ErrorFieldNotFound, ErrorDuplicateField, ErrorMissingField, ErrorInvalidBinaryOperation,
		ErrorDuplicateDeclaration, ErrorInvalidStatement, ErrorInvalidConstructor, ErrorInvalidArguments,
		ErrorInvalidAssignment, ErrorInvalidOperation, ErrorGenericSemantic, ErrorMutability,
		ErrorNumericOverflow, ErrorVoidInExpression, ErrorParse, ErrorInvalidConversion,
		ErrorNotConstant, ErrorConstantDivisionByZero, ErrorInvalidType, ErrorUnresolvedImport,
		ErrorImportCycle, ErrorBaseContract, ErrorLinearization, ErrorOverride,
		ErrorMissingImplementation, ErrorNoMatchingOverload, ErrorAmbiguousCall, ErrorAssembly,
		ErrorUnsupportedBuiltin, WarningUnusedVariable, WarningUnreachableCode, WarningUnusedParameter,
		WarningMutability,
	}
	for _, code := range codes {
		assert.NotEmpty(t, GetErrorDescription(code), code)
		assert.NotEqual(t, "Unknown", GetErrorCategory(code), code)
	}
	assert.Empty(t, GetErrorDescription("E9999"))
}

func TestExplain(t *testing.T) {
	text, err := Explain(" e0201 ")
	require.NoError(t, err)
	assert.Equal(t, "E0201: Expression must be a compile-time constant\n  category: Type System\n  severity: error\n", text)

	text, err = Explain(WarningUnreachableCode)
	require.NoError(t, err)
	assert.Contains(t, text, "severity: warning")

	_, err = Explain("E9999")
	assert.EqualError(t, err, "unknown diagnostic code 'E9999'")
}

package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHook(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"msg.sender", true},
		{"keccak256", true},
		{"array.push", false},
		{"asm.caller", true},
		{"asm.add", false},
		{"asm.", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHook(tt.name))
		})
	}
}

func TestHookNamesSortedAndQualified(t *testing.T) {
	names := HookNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "asm.keccak256")
	assert.Contains(t, names, "keccak256")
	assert.NotContains(t, names, "asm.mload")
}

func TestTerminatingAsmBuiltins(t *testing.T) {
	for _, name := range []string{"return", "revert", "stop", "invalid"} {
		assert.True(t, Asm[name].Terminates, name)
		assert.Zero(t, Asm[name].Returns, name)
	}
}

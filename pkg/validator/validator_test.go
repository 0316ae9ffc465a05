package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Target string `json:"target" validate:"required,safearg"`
	Stride int    `json:"stride" validate:"min=-32,max=32"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(&sampleRequest{Target: "minecraft", Stride: -2}))

	err := ValidateStruct(&sampleRequest{Target: "../etc/passwd;", Stride: 40})
	require.Error(t, err)
	errs := TranslateError(err)
	assert.Contains(t, errs, "Target")
	assert.Contains(t, errs, "Stride")
}

func TestValidateVar_CustomTags(t *testing.T) {
	tests := []struct {
		value string
		rules string
		ok    bool
	}{
		{"my-bucket.backup_1", "safearg", true},
		{"gs://bucket/path", "safearg", true},
		{"bucket; rm -rf /", "safearg", false},
		{"$(whoami)", "safearg", false},
		{"say hello world", "consolecmd", true},
		{"give @p minecraft:diamond 64", "consolecmd", true},
		{"say `id`", "consolecmd", false},
		{"say hi && reboot", "consolecmd", false},
		{"", "required,consolecmd", false},
		{"log-minecraft", "targetname", true},
		{"../minecraft", "targetname", false},
		{"Minecraft", "targetname", false},
	}
	for _, tt := range tests {
		err := ValidateVar(tt.value, tt.rules)
		if tt.ok {
			assert.NoError(t, err, "%q with %q", tt.value, tt.rules)
		} else {
			assert.Error(t, err, "%q with %q", tt.value, tt.rules)
		}
	}
}

func TestFailedTag(t *testing.T) {
	err := ValidateVar(300, "min=1,max=256")
	assert.Equal(t, "max", FailedTag(err))
	assert.Equal(t, "", FailedTag(nil))
}

func TestCheckRules(t *testing.T) {
	assert.NoError(t, CheckRules("omitempty,max=64,safearg"))
	assert.Error(t, CheckRules("definitely_not_a_rule"))
}

func TestTranslateError_NonValidationError(t *testing.T) {
	errs := TranslateError(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), errs["_"])
	assert.Empty(t, TranslateError(nil))
}

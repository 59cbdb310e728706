package writeback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidJS(t *testing.T) {
	src := []byte(`class Quiz { onload() { console.log("loaded"); } }
module.exports = Quiz;
`)
	assert.NoError(t, Validate(src, "main.js"))
}

func TestValidate_BrokenJS(t *testing.T) {
	src := []byte(`class Quiz {
	onload() {
		console.log("loaded");
	// missing closing braces
`)
	err := Validate(src, "main.js")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "main.js", ve.FilePath)
	assert.Contains(t, ve.Message, "syntax error")
}

func TestValidate_CSS(t *testing.T) {
	assert.NoError(t, Validate([]byte(".spen-canvas { touch-action: none; }\n"), "styles.css"))
}

func TestValidate_JSON(t *testing.T) {
	assert.NoError(t, Validate([]byte(`["file-explorer", "search"]`), "core-plugins.json"))

	err := Validate([]byte(`{"a": true,`), "core-plugins.json")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "invalid JSON")
}

func TestValidate_UnknownExtension_PassThrough(t *testing.T) {
	// Unknown extensions should pass through without error
	src := []byte(`this is not valid code in any language {{{`)
	assert.NoError(t, Validate(src, "note.md"))
	assert.False(t, Supported("note.md"))
	assert.True(t, Supported("main.js"))
}

func TestValidate_EmptyContent(t *testing.T) {
	assert.NoError(t, Validate([]byte{}, "main.js"))
}

func TestASTErrors_BrokenJS(t *testing.T) {
	errs := ASTErrors([]byte("function a() {\n  let x = ;\n}\n"), "main.js")
	require.NotEmpty(t, errs)
	assert.Equal(t, "main.js", errs[0].FilePath)
}

func TestASTErrors_ValidJS_ReturnsNil(t *testing.T) {
	assert.Nil(t, ASTErrors([]byte("function a() {}\n"), "main.js"))
}

func TestRegression(t *testing.T) {
	clean := []byte("function a() {\n  return 1;\n}\n")
	broken := []byte("function a() {\n  return 1;\n")

	assert.NoError(t, Regression(clean, clean, "main.js"))
	assert.Error(t, Regression(clean, broken, "main.js"))
	// an already broken file may stay as broken as it was
	assert.NoError(t, Regression(broken, broken, "main.js"))
	assert.NoError(t, Regression(broken, clean, "main.js"))
}

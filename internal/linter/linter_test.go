package linter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmCalls(t *testing.T) {
	src := []byte(`class View {
  remove() {
    if (confirm('삭제할까요?')) {
      this.items = [];
    }
  }
  reset() {
    const ok = window.confirm("reset?");
    this.confirmed(ok);
  }
}
`)
	diags, err := ConfirmCalls(src)
	require.NoError(t, err)
	require.Len(t, diags, 2)

	assert.Equal(t, uint32(2), diags[0].Line)
	assert.True(t, diags[0].Guard)
	assert.Equal(t, "if (confirm('삭제할까요?')) {", diags[0].Snippet)
	assert.Equal(t, "line 3: confirm() guard; convert to ConfirmModal callback", diags[0].String())

	assert.Equal(t, uint32(7), diags[1].Line)
	assert.False(t, diags[1].Guard)
}

func TestConfirmCalls_None(t *testing.T) {
	diags, err := ConfirmCalls([]byte("new ConfirmModal(this.app, 'x', (confirmed) => {}).open();\n"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

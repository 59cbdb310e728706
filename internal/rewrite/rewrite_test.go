package rewrite

import (
	"errors"
	"regexp"
	"testing"

	"github.com/agentic-research/vaultpatch/internal/span"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmToModal_Basic(t *testing.T) {
	src := "    onClick() {\n" +
		"        if (confirm('삭제할까요?')) {\n" +
		"            this.remove();\n" +
		"            new Notice('done');\n" +
		"        }\n" +
		"    }\n"
	want := "    onClick() {\n" +
		"        new ConfirmModal(this.app, '삭제할까요?', (confirmed) => {\n" +
		"            if (confirmed) {\n" +
		"                this.remove();\n" +
		"                new Notice('done');\n" +
		"            }\n" +
		"        }).open();\n" +
		"    }\n"

	got, convs, err := ConfirmToModal(src, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].Line)
	assert.Equal(t, "'삭제할까요?'", convs[0].Message)
	assert.NoError(t, convs[0].Err)
}

func TestConfirmToModal_NestedBracesAndStrings(t *testing.T) {
	src := "if (confirm(`Delete ${name}?`)) {\n" +
		"    if (ok) { run('}'); }\n" +
		"}\n"
	want := "new ConfirmModal(this.app, `Delete ${name}?`, (confirmed) => {\n" +
		"    if (confirmed) {\n" +
		"        if (ok) { run('}'); }\n" +
		"    }\n" +
		"}).open();\n"

	got, _, err := ConfirmToModal(src, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConfirmToModal_SingleLine(t *testing.T) {
	src := "  if (confirm('x')) { go(); }\n"
	got, _, err := ConfirmToModal(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "  new ConfirmModal(this.app, 'x', (confirmed) => {\n"+
		"      if (confirmed) {\n"+
		"          go();\n"+
		"      }\n"+
		"  }).open();\n", got)
}

func TestConfirmToModal_LineFilter(t *testing.T) {
	src := "if (confirm('a')) {\n    a();\n}\nif (confirm('b')) {\n    b();\n}\n"
	got, convs, err := ConfirmToModal(src, []int{4, 9})
	require.NoError(t, err)

	assert.Contains(t, got, "if (confirm('a'))")
	assert.Contains(t, got, "new ConfirmModal(this.app, 'b'")

	require.Len(t, convs, 2)
	assert.Equal(t, 4, convs[0].Line)
	assert.NoError(t, convs[0].Err)
	assert.Equal(t, 9, convs[1].Line)
	assert.True(t, errors.Is(convs[1].Err, span.ErrNotFound))
}

func TestConfirmToModal_UnbalancedLeftUntouched(t *testing.T) {
	src := "if (confirm('a')) {\n    a();\n"
	got, convs, err := ConfirmToModal(src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, got)
	require.Len(t, convs, 1)
	assert.True(t, errors.Is(convs[0].Err, span.ErrUnbalanced))
}

func TestConfirmToModal_ElseBranchRefused(t *testing.T) {
	src := "if (confirm('a')) {\n    a();\n} else {\n    b();\n}\n"
	got, convs, err := ConfirmToModal(src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, got)
	require.Len(t, convs, 1)
	assert.Error(t, convs[0].Err)
}

func TestConfirmToModal_CRLF(t *testing.T) {
	src := "if (confirm('a')) {\r\n    a();\r\n}\r\nnext();\r\n"
	got, _, err := ConfirmToModal(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "new ConfirmModal(this.app, 'a', (confirmed) => {\r\n"+
		"    if (confirmed) {\r\n"+
		"        a();\r\n"+
		"    }\r\n"+
		"}).open();\r\nnext();\r\n", got)
}

var fontSize = regexp.MustCompile(`font-size: \$\{isMobile \? '(\d+)px' : '[^']+'\}`)

func TestEnsureMinPx(t *testing.T) {
	src := "font-size: ${isMobile ? '14px' : '13px'}"
	got, ok := EnsureMinPx(src, fontSize.FindStringSubmatchIndex(src), 16)
	require.True(t, ok)
	assert.Equal(t, "font-size: ${isMobile ? '16px' : '13px'}", got)

	src = "font-size: ${isMobile ? '18px' : '13px'}"
	_, ok = EnsureMinPx(src, fontSize.FindStringSubmatchIndex(src), 16)
	assert.False(t, ok)
}

func TestAppendUnlessFollowed(t *testing.T) {
	re := regexp.MustCompile(`overflow-y: auto;`)
	fn := AppendUnlessFollowed(" -webkit-overflow-scrolling: touch;", "-webkit-overflow-scrolling")

	src := "overflow-y: auto;\n  color: red;"
	got, ok := fn(src, re.FindStringIndex(src))
	require.True(t, ok)
	assert.Equal(t, "overflow-y: auto; -webkit-overflow-scrolling: touch;", got)

	src = "overflow-y: auto;\n  -webkit-overflow-scrolling: touch;"
	_, ok = fn(src, re.FindStringIndex(src))
	assert.False(t, ok)
}

func TestConfirmToModal_AwaitingBodyGetsAsyncCallback(t *testing.T) {
	src := "    async remove(x) {\n" +
		"        if (confirm('삭제?')) {\n" +
		"            await this.store.remove(x);\n" +
		"        }\n" +
		"    }\n"
	got, convs, err := ConfirmToModal(src, nil)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.NoError(t, convs[0].Err)
	assert.Equal(t, "    async remove(x) {\n"+
		"        new ConfirmModal(this.app, '삭제?', async (confirmed) => {\n"+
		"            if (confirmed) {\n"+
		"                await this.store.remove(x);\n"+
		"            }\n"+
		"        }).open();\n"+
		"    }\n", got)
}

package frontmatter

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/vaultpatch/internal/vault"
)

const basicNote = `# 學 문제

## 한자
學

## 번호
1

## 폴더
기본

## 문제
다음 한자의 "음"은?
`

func TestConvert_Basic(t *testing.T) {
	got, converted, err := Convert(basicNote)
	require.NoError(t, err)
	assert.True(t, converted)

	want := `---
hanzi: "學"
number: "1"
folder: "기본"
question: "다음 한자의 \"음\"은?"
difficulty: "C"
wrongCount: 0
correctCount: 0
bookmarked: false
lastAttempt: null
keywords: []
---

` + basicNote
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Convert mismatch (-want +got):\n%s", diff)
	}
}

func TestConvert_Idempotent(t *testing.T) {
	once, _, err := Convert(basicNote)
	require.NoError(t, err)
	twice, converted, err := Convert(once)
	require.NoError(t, err)
	assert.False(t, converted)
	assert.Equal(t, once, twice)
}

func TestConvert_LeadingWhitespaceFrontMatterSkipped(t *testing.T) {
	content := "\n\n---\ntitle: x\n---\nbody\n"
	got, converted, err := Convert(content)
	require.NoError(t, err)
	assert.False(t, converted)
	assert.Equal(t, content, got)
}

func TestParseSections_OptionalFields(t *testing.T) {
	note := `## 문제
첫 줄
둘째 줄
## 선택지
- 하나
- 둘
3. 셋
## 정답
2
## 힌트
발음
## 난이도
A
## 북마크
⭐
## 정답 횟수
4
## 오답 횟수
x
`
	q := ParseSections(note)
	assert.Equal(t, "첫 줄 둘째 줄", q.Question)
	assert.Equal(t, []string{"하나", "둘", "셋"}, q.Options)
	require.NotNil(t, q.Answer)
	assert.Equal(t, 2, *q.Answer)
	assert.Equal(t, "발음", q.Hint)
	assert.Equal(t, "A", q.Difficulty)
	assert.True(t, q.Bookmarked)
	assert.Equal(t, 4, q.CorrectCount)
	assert.Equal(t, 0, q.WrongCount)
}

func TestRender_DecodesBack(t *testing.T) {
	answer := 3
	in := Question{
		Hanzi:      "水",
		Number:     "12",
		Folder:     "N3",
		Question:   "a: b # not a comment",
		Options:    []string{"true", "null"},
		Answer:     &answer,
		Note:       "노트",
		Difficulty: "B",
		Keywords:   []string{},
	}
	fm, err := Render(in)
	require.NoError(t, err)

	out, err := Decode(fm + "\nbody")
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-in +out):\n%s", diff)
	}
}

func TestDecode_Missing(t *testing.T) {
	_, err := Decode("## 한자\n學\n")
	assert.Error(t, err)
}

func TestBatch_Select(t *testing.T) {
	v := vault.NewMemory()
	root := DefaultRoot
	for _, name := range []string{
		"기본/1_學.md",
		"기본/문제목록_기본.md",
		"기본/대시보드_x.md",
		"기본/README.md",
		"N3/2_水.md",
		"기타/3_火.md",
	} {
		require.NoError(t, v.WriteFile(filepath.Join(root, name), []byte("x")))
	}

	got, err := DefaultBatch().Select(v)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "N3", "2_水.md"),
		filepath.Join(root, "기본", "1_學.md"),
	}, got)

	b := DefaultBatch()
	b.Folders = []string{"기타"}
	got, err = b.Select(v)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBatch_MissingRoot(t *testing.T) {
	_, err := DefaultBatch().Select(vault.NewMemory())
	assert.Error(t, err)
}

func TestTally(t *testing.T) {
	tl := Tally{Converted: 2, Skipped: 1, Errored: 1}
	assert.Equal(t, 4, tl.Total())
	assert.Equal(t, "converted 2, skipped 1, errors 1", tl.String())
}

// Package frontmatter converts heading-style quiz question notes into notes
// with a YAML front matter block.
//
// A question note looks like
//
//	## 한자
//	學
//	## 문제
//	다음 한자의 음은?
//
// and gains a block with the parsed fields plus default statistics.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agentic-research/vaultpatch/internal/span"
)

// Delimiter opens and closes a front matter block.
const Delimiter = "---"

// Question is the record stored in a question note's front matter.
type Question struct {
	Hanzi        string   `yaml:"hanzi"`
	Number       string   `yaml:"number"`
	Folder       string   `yaml:"folder"`
	Question     string   `yaml:"question"`
	Options      []string `yaml:"options,omitempty"`
	Answer       *int     `yaml:"answer,omitempty"`
	Hint         string   `yaml:"hint,omitempty"`
	Note         string   `yaml:"note,omitempty"`
	Difficulty   string   `yaml:"difficulty"`
	WrongCount   int      `yaml:"wrongCount"`
	CorrectCount int      `yaml:"correctCount"`
	Bookmarked   bool     `yaml:"bookmarked"`
	LastAttempt  *string  `yaml:"lastAttempt"`
	Keywords     []string `yaml:"keywords"`
}

// DefaultDifficulty is used when a note has no 난이도 section.
const DefaultDifficulty = "C"

// Has reports whether content already starts with a front matter block.
func Has(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), Delimiter)
}

var optionPrefix = regexp.MustCompile(`^(?:-|\d+\.)\s*`)

// ParseSections reads the `## <label>` sections of a question note. Lines in
// a section are joined with a space; unknown labels are ignored.
func ParseSections(content string) Question {
	q := Question{Difficulty: DefaultDifficulty, Keywords: []string{}}

	sections := map[string][]string{}
	current := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "## ") {
			current = strings.TrimSpace(line[3:])
			if _, ok := sections[current]; !ok {
				sections[current] = nil
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") || current == "" {
			continue
		}
		sections[current] = append(sections[current], line)
	}

	text := func(label string) string { return strings.Join(sections[label], " ") }
	count := func(label string) int {
		n, _ := strconv.Atoi(text(label))
		return n
	}

	q.Hanzi = text("한자")
	q.Number = text("번호")
	q.Folder = text("폴더")
	q.Question = text("문제")
	for _, line := range sections["선택지"] {
		loc := optionPrefix.FindStringIndex(line)
		if loc == nil || loc[1] == len(line) {
			continue
		}
		q.Options = append(q.Options, line[loc[1]:])
	}
	if _, ok := sections["정답"]; ok {
		n := count("정답")
		q.Answer = &n
	}
	q.Hint = text("힌트")
	q.Note = text("노트")
	if d := text("난이도"); d != "" {
		q.Difficulty = d
	}
	if b := text("북마크"); strings.EqualFold(b, "true") || b == "⭐" {
		q.Bookmarked = true
	}
	q.CorrectCount = count("정답 횟수")
	q.WrongCount = count("오답 횟수")
	return q
}

// Render returns the front matter block for q, delimiters included. Strings
// are double quoted so question text never changes type.
func Render(q Question) (string, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(key string, v *yaml.Node) {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
	}

	add("hanzi", quoted(q.Hanzi))
	add("number", quoted(q.Number))
	add("folder", quoted(q.Folder))
	add("question", quoted(q.Question))
	if len(q.Options) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, o := range q.Options {
			seq.Content = append(seq.Content, quoted(o))
		}
		add("options", seq)
	}
	if q.Answer != nil {
		add("answer", scalar("!!int", strconv.Itoa(*q.Answer)))
	}
	if q.Hint != "" {
		add("hint", quoted(q.Hint))
	}
	if q.Note != "" {
		add("note", quoted(q.Note))
	}
	difficulty := q.Difficulty
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	add("difficulty", quoted(difficulty))
	add("wrongCount", scalar("!!int", strconv.Itoa(q.WrongCount)))
	add("correctCount", scalar("!!int", strconv.Itoa(q.CorrectCount)))
	add("bookmarked", scalar("!!bool", strconv.FormatBool(q.Bookmarked)))
	if q.LastAttempt != nil {
		add("lastAttempt", quoted(*q.LastAttempt))
	} else {
		add("lastAttempt", scalar("!!null", "null"))
	}
	kw := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, k := range q.Keywords {
		kw.Content = append(kw.Content, quoted(k))
	}
	add("keywords", kw)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	return Delimiter + "\n" + buf.String() + Delimiter + "\n", nil
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// Convert prepends a front matter block and a blank line to content, using
// the line ending of content. Content that already has front matter is
// returned unchanged with converted=false.
func Convert(content string) (out string, converted bool, err error) {
	if Has(content) {
		return content, false, nil
	}
	fm, err := Render(ParseSections(content))
	if err != nil {
		return content, false, err
	}
	return span.WithLineEnding(fm+"\n", span.LineEnding(content)) + content, true, nil
}

// Decode parses the front matter block at the start of content.
func Decode(content string) (Question, error) {
	var q Question
	rest := strings.ReplaceAll(strings.TrimLeft(content, " \t\r\n"), "\r\n", "\n")
	if !strings.HasPrefix(rest, Delimiter+"\n") {
		return q, fmt.Errorf("no front matter")
	}
	rest = rest[len(Delimiter)+1:]
	end := strings.Index(rest, "\n"+Delimiter)
	if end < 0 {
		return q, fmt.Errorf("unterminated front matter")
	}
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &q); err != nil {
		return q, fmt.Errorf("decode front matter: %w", err)
	}
	return q, nil
}

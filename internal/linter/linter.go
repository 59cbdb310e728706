package linter

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

type Diagnostic struct {
	Message string
	Line    uint32
	Snippet string
	Guard   bool // the call is the whole condition of an if statement
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line+1, d.Message)
}

const callQuery = `(call_expression function: (_) @fn) @call`

// ConfirmCalls lists every blocking confirm() call in JavaScript content.
// Obsidian mobile does not implement window.confirm, so each hit is a
// candidate for ConfirmModal.
func ConfirmCalls(content []byte) ([]Diagnostic, error) {
	lang := javascript.GetLanguage()
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}

	q, err := sitter.NewQuery([]byte(callQuery), lang)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, tree.RootNode())

	lines := strings.Split(string(content), "\n")
	var diags []Diagnostic
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var call, fn *sitter.Node
		for _, c := range m.Captures {
			switch q.CaptureNameForId(c.Index) {
			case "call":
				call = c.Node
			case "fn":
				fn = c.Node
			}
		}
		if call == nil || fn == nil {
			continue
		}
		switch fn.Content(content) {
		case "confirm", "window.confirm":
		default:
			continue
		}

		row := call.StartPoint().Row
		d := Diagnostic{
			Message: "blocking confirm() call; use ConfirmModal",
			Line:    row,
			Guard:   isIfCondition(call),
		}
		if d.Guard {
			d.Message = "confirm() guard; convert to ConfirmModal callback"
		}
		if int(row) < len(lines) {
			d.Snippet = strings.TrimSpace(lines[row])
		}
		diags = append(diags, d)
	}
	return diags, nil
}

// isIfCondition reports whether call is the entire condition of an if.
func isIfCondition(call *sitter.Node) bool {
	p := call.Parent()
	if p == nil || p.Type() != "parenthesized_expression" {
		return false
	}
	gp := p.Parent()
	return gp != nil && gp.Type() == "if_statement"
}

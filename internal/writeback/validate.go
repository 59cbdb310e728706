package writeback

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ValidationError contains structured information about a syntax error.
type ValidationError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// Validate parses content and returns an error if it is not well formed.
// Plugin sources go through tree-sitter, .json files through ojg. Files with
// no known language pass through without validation (returns nil).
func Validate(content []byte, filePath string) error {
	if isJSON(filePath) {
		if ve := validateJSON(content, filePath); ve != nil {
			return ve
		}
		return nil
	}

	root, err := parse(content, filePath)
	if err != nil || root == nil {
		return err
	}
	if !root.HasError() {
		return nil
	}

	// Walk tree to find first ERROR node for a useful error message
	errNode := findFirstError(root)
	if errNode != nil {
		return &ValidationError{
			FilePath: filePath,
			Line:     errNode.StartPoint().Row,
			Column:   errNode.StartPoint().Column,
			Message:  "syntax error in AST",
		}
	}

	return &ValidationError{FilePath: filePath, Message: "AST contains errors"}
}

// ASTErrors returns all ERROR node locations in the content for diagnostic reporting.
// Returns nil if no errors or unknown language.
func ASTErrors(content []byte, filePath string) []ValidationError {
	if isJSON(filePath) {
		if ve := validateJSON(content, filePath); ve != nil {
			return []ValidationError{*ve}
		}
		return nil
	}

	root, err := parse(content, filePath)
	if err != nil || root == nil || !root.HasError() {
		return nil
	}

	var errs []ValidationError
	collectErrors(root, filePath, &errs)
	return errs
}

// Regression compares the syntax errors of before and after. Plugin bundles
// are not always clean to begin with, so only an increase in error nodes
// counts; the first error of after is reported.
func Regression(before, after []byte, filePath string) error {
	newErrs := ASTErrors(after, filePath)
	if len(newErrs) == 0 {
		return nil
	}
	oldErrs := ASTErrors(before, filePath)
	if len(newErrs) <= len(oldErrs) {
		return nil
	}
	e := newErrs[0]
	e.Message = fmt.Sprintf("%s (%d errors, was %d)", e.Message, len(newErrs), len(oldErrs))
	return &e
}

// Supported reports whether Validate checks files like filePath.
func Supported(filePath string) bool {
	return isJSON(filePath) || languageForPath(filePath) != nil
}

func parse(content []byte, filePath string) (*sitter.Node, error) {
	lang := languageForPath(filePath)
	if lang == nil {
		return nil, nil // unknown language, pass through
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root for %s", filePath)
	}
	return root, nil
}

func validateJSON(content []byte, filePath string) *ValidationError {
	if _, err := oj.Parse(content); err != nil {
		return &ValidationError{FilePath: filePath, Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// findFirstError does a depth-first search for the first ERROR node.
func findFirstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := findFirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// collectErrors gathers all ERROR/MISSING nodes in the tree.
func collectErrors(node *sitter.Node, filePath string, errs *[]ValidationError) {
	if node.IsError() || node.IsMissing() {
		*errs = append(*errs, ValidationError{
			FilePath: filePath,
			Line:     node.StartPoint().Row,
			Column:   node.StartPoint().Column,
			Message:  "syntax error in AST",
		})
		return // don't recurse into error children
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, filePath, errs)
		}
	}
}

func isJSON(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".json")
}

// languageForPath maps file extensions to tree-sitter languages.
func languageForPath(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts":
		return typescript.GetLanguage()
	case ".css":
		return css.GetLanguage()
	default:
		return nil
	}
}

package analyzer

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/smartsdlc/sdlc/internal/models"
)

// Analyzer runs deterministic static checks over Python source. It holds
// no state between calls; a fresh tree-sitter parser is created per call
// so concurrent analyses never share a parse tree.
type Analyzer struct{}

// New returns a static analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze parses the artifact and returns findings applicable to the
// operation. Generative operations yield nil without parsing. A source
// that cannot be parsed degrades to a single logic/error finding;
// Analyze never returns an error.
func (a *Analyzer) Analyze(ctx context.Context, artifact models.SourceArtifact, op models.Operation) []models.StaticFinding {
	if !op.Analyzable() {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	content := []byte(artifact.Content)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return []models.StaticFinding{parseFailure(err.Error())}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return []models.StaticFinding{parseFailure("source contains syntax errors")}
	}

	src := &source{content: content, lines: strings.Split(artifact.Content, "\n")}

	var findings []models.StaticFinding
	switch op {
	case models.OpReviewCode:
		findings = append(findings, styleChecks(root, src)...)
		findings = append(findings, logicChecks(root, src)...)
	case models.OpPredictBugs:
		findings = append(findings, logicChecks(root, src)...)
		findings = append(findings, securityChecks(root, src)...)
	case models.OpSecurityScan:
		findings = append(findings, securityChecks(root, src)...)
	case models.OpGenerateReport:
		findings = append(findings, styleChecks(root, src)...)
		findings = append(findings, logicChecks(root, src)...)
		findings = append(findings, securityChecks(root, src)...)
		findings = append(findings, metricFindings(root, src)...)
	}

	models.SortFindings(findings)
	return findings
}

// parseFailure is the single finding emitted when the source cannot be
// analyzed. Tool failure is absorbed here, never propagated.
func parseFailure(detail string) models.StaticFinding {
	return models.StaticFinding{
		Category: models.CategoryLogic,
		Severity: models.SeverityError,
		Message:  fmt.Sprintf("file could not be parsed: %s", detail),
	}
}

// source bundles the raw bytes and line split of the artifact for checks.
type source struct {
	content []byte
	lines   []string
}

func (s *source) text(n *sitter.Node) string {
	return string(s.content[n.StartByte():n.EndByte()])
}

// line returns the 1-based start line of a node.
func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// walk visits every named node in the subtree, depth first.
func walk(n *sitter.Node, fn func(*sitter.Node)) {
	fn(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}

// styleChecks covers docstrings, PEP 8 blank-line conventions, unused
// arguments, and oversized functions.
func styleChecks(root *sitter.Node, src *source) []models.StaticFinding {
	var findings []models.StaticFinding

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition":
			name := defName(n, src)
			if !hasDocstring(n) {
				findings = append(findings, models.StaticFinding{
					Category: models.CategoryStyle,
					Severity: models.SeverityInfo,
					Message:  fmt.Sprintf("function '%s' is missing a docstring", name),
					Line:     line(n),
				})
			}
			findings = append(findings, unusedArgs(n, name, src)...)
			if body := n.ChildByFieldName("body"); body != nil && int(body.NamedChildCount()) > maxFunctionStatements {
				findings = append(findings, models.StaticFinding{
					Category: models.CategoryStyle,
					Severity: models.SeverityWarning,
					Message:  fmt.Sprintf("function '%s' is too long; consider refactoring", name),
					Line:     line(n),
				})
			}
		case "class_definition":
			if !hasDocstring(n) {
				findings = append(findings, models.StaticFinding{
					Category: models.CategoryStyle,
					Severity: models.SeverityInfo,
					Message:  fmt.Sprintf("class '%s' is missing a docstring", defName(n, src)),
					Line:     line(n),
				})
			}
		}
	})

	findings = append(findings, blankLineChecks(root, src)...)
	return findings
}

// maxFunctionStatements is the statement count beyond which a function is
// flagged for refactoring.
const maxFunctionStatements = 20

// defName extracts the name of a function or class definition.
func defName(n *sitter.Node, src *source) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return "<anonymous>"
	}
	return src.text(nameNode)
}

// hasDocstring reports whether the first statement of the definition body
// is a string literal.
func hasDocstring(n *sitter.Node) bool {
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return false
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return false
	}
	return first.NamedChild(0).Type() == "string"
}

// unusedArgs flags parameters that never appear in the function body.
func unusedArgs(fn *sitter.Node, name string, src *source) []models.StaticFinding {
	params := fn.ChildByFieldName("parameters")
	body := fn.ChildByFieldName("body")
	if params == nil || body == nil {
		return nil
	}

	declared := map[string]bool{}
	var order []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := paramName(params.NamedChild(i), src)
		if p == "" || p == "self" || p == "cls" || strings.HasPrefix(p, "_") {
			continue
		}
		if !declared[p] {
			declared[p] = true
			order = append(order, p)
		}
	}
	if len(order) == 0 {
		return nil
	}

	walk(body, func(n *sitter.Node) {
		if n.Type() == "identifier" {
			delete(declared, src.text(n))
		}
	})

	var unused []string
	for _, p := range order {
		if declared[p] {
			unused = append(unused, p)
		}
	}
	if len(unused) == 0 {
		return nil
	}
	return []models.StaticFinding{{
		Category: models.CategoryStyle,
		Severity: models.SeverityWarning,
		Message:  fmt.Sprintf("function '%s' has unused arguments: %s", name, strings.Join(unused, ", ")),
		Line:     line(fn),
	}}
}

// paramName resolves the identifier inside any parameter node shape
// (plain, typed, defaulted, splat).
func paramName(n *sitter.Node, src *source) string {
	if n.Type() == "identifier" {
		return src.text(n)
	}
	if nameNode := n.ChildByFieldName("name"); nameNode != nil && nameNode.Type() == "identifier" {
		return src.text(nameNode)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "identifier" {
			return src.text(c)
		}
	}
	return ""
}

// blankLineChecks enforces two PEP 8 conventions: two blank lines before a
// top-level definition that follows other code, and a newline at end of file.
func blankLineChecks(root *sitter.Node, src *source) []models.StaticFinding {
	var findings []models.StaticFinding

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		typ := child.Type()
		if typ != "function_definition" && typ != "class_definition" && typ != "decorated_definition" {
			continue
		}
		startRow := int(child.StartPoint().Row)
		if startRow == 0 {
			continue // first statement in the file
		}
		blanks := 0
		for r := startRow - 1; r >= 0 && strings.TrimSpace(src.lines[r]) == ""; r-- {
			blanks++
		}
		if blanks == startRow {
			continue // only blank lines above, nothing precedes the def
		}
		if blanks < 2 {
			findings = append(findings, models.StaticFinding{
				Category: models.CategoryStyle,
				Severity: models.SeverityInfo,
				Message:  "missing blank lines: expected 2 blank lines before top-level definition",
				Line:     startRow + 1,
			})
		}
	}

	if len(src.content) > 0 && src.content[len(src.content)-1] != '\n' {
		findings = append(findings, models.StaticFinding{
			Category: models.CategoryStyle,
			Severity: models.SeverityInfo,
			Message:  "missing blank line at end of file",
			Line:     len(src.lines),
		})
	}

	return findings
}

// logicChecks covers likely-bug patterns: unbounded while-True loops and
// division by a literal zero.
func logicChecks(root *sitter.Node, src *source) []models.StaticFinding {
	var findings []models.StaticFinding

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "while_statement":
			cond := n.ChildByFieldName("condition")
			if cond == nil || cond.Type() != "true" {
				return
			}
			hasBreak := false
			if body := n.ChildByFieldName("body"); body != nil {
				walk(body, func(b *sitter.Node) {
					if b.Type() == "break_statement" {
						hasBreak = true
					}
				})
			}
			if !hasBreak {
				findings = append(findings, models.StaticFinding{
					Category: models.CategoryLogic,
					Severity: models.SeverityWarning,
					Message:  "potential infinite loop: 'while True' without break",
					Line:     line(n),
				})
			}
		case "binary_operator":
			op := n.ChildByFieldName("operator")
			right := n.ChildByFieldName("right")
			if op == nil || right == nil {
				return
			}
			opText := src.text(op)
			if opText != "/" && opText != "//" && opText != "%" {
				return
			}
			if isZeroLiteral(right, src) {
				findings = append(findings, models.StaticFinding{
					Category: models.CategoryLogic,
					Severity: models.SeverityWarning,
					Message:  "potential division by zero",
					Line:     line(n),
				})
			}
		}
	})

	return findings
}

func isZeroLiteral(n *sitter.Node, src *source) bool {
	switch n.Type() {
	case "integer":
		return src.text(n) == "0"
	case "float":
		t := strings.Trim(src.text(n), "0.")
		return t == ""
	default:
		return false
	}
}

// securityChecks flags calls known to be dangerous in untrusted contexts.
func securityChecks(root *sitter.Node, src *source) []models.StaticFinding {
	var findings []models.StaticFinding

	walk(root, func(n *sitter.Node) {
		if n.Type() != "call" {
			return
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return
		}
		var msg string
		switch {
		case fn.Type() == "identifier" && (src.text(fn) == "eval" || src.text(fn) == "exec"):
			msg = fmt.Sprintf("use of unsafe function '%s'; consider safer alternatives", src.text(fn))
		case fn.Type() == "attribute" && src.text(fn) == "os.system":
			msg = "shell command execution via 'os.system'; prefer subprocess with a list argument"
		case fn.Type() == "attribute" && src.text(fn) == "pickle.loads":
			msg = "deserializing with 'pickle.loads' can execute arbitrary code"
		default:
			return
		}
		findings = append(findings, models.StaticFinding{
			Category: models.CategorySecurity,
			Severity: models.SeverityWarning,
			Message:  msg,
			Line:     line(n),
		})
	})

	return findings
}

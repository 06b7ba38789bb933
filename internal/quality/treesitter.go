// SPDX-License-Identifier: AGPL-3.0-or-later
package quality

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// parseTree parses src with the given grammar. A tree containing syntax
// errors is rejected: the caller records one PARSE_ERROR finding for the file
// and analysis continues elsewhere.
func parseTree(lang *sitter.Language, path string, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, fmt.Errorf("syntax errors in %s", path)
	}
	return tree, nil
}

func nodeText(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

func nodeLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// stepKindFromName maps a registration/decorator name to a step kind.
func stepKindFromName(name string) (StepKind, bool) {
	switch strings.ToLower(name) {
	case "given":
		return StepGiven, true
	case "when":
		return StepWhen, true
	case "then":
		return StepThen, true
	case "and", "but", "step", "definestep":
		return StepAny, true
	}
	return "", false
}

// stripQuotes removes string/regex delimiters from a literal step label.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`, `"`, `'`, "`", "/"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// --- python ---

func extractPython(path string, src []byte) ([]Binding, error) {
	tree, err := parseTree(python.GetLanguage(), path, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var bindings []Binding
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "decorated_definition" {
				if b, ok := pythonBinding(child, path, src); ok {
					bindings = append(bindings, b)
				}
				continue
			}
			walk(child)
		}
	}
	walk(tree.RootNode())
	return bindings, nil
}

func pythonBinding(decorated *sitter.Node, path string, src []byte) (Binding, bool) {
	var kind StepKind
	var label string
	var def *sitter.Node

	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		switch child.Type() {
		case "decorator":
			name, arg := pythonDecorator(child, src)
			if k, ok := stepKindFromName(name); ok {
				kind, label = k, arg
			}
		case "function_definition":
			def = child
		}
	}
	if kind == "" || def == nil {
		return Binding{}, false
	}

	body := def.ChildByFieldName("body")
	if body == nil {
		return Binding{}, false
	}
	if label == "" {
		if name := def.ChildByFieldName("name"); name != nil {
			label = nodeText(name, src)
		}
	}

	return Binding{
		Kind:      kind,
		Label:     label,
		File:      path,
		Line:      nodeLine(def),
		Body:      nodeText(body, src),
		StmtCount: pythonStmtCount(body, src),
	}, true
}

// pythonDecorator returns the decorator's call name and its first string
// argument, e.g. ("then", "access is granted") for @then("access is granted").
func pythonDecorator(dec *sitter.Node, src []byte) (string, string) {
	for i := 0; i < int(dec.NamedChildCount()); i++ {
		child := dec.NamedChild(i)
		switch child.Type() {
		case "call":
			fn := child.ChildByFieldName("function")
			args := child.ChildByFieldName("arguments")
			name := ""
			if fn != nil {
				name = lastAttrSegment(nodeText(fn, src))
			}
			label := ""
			if args != nil && args.NamedChildCount() > 0 {
				label = stripQuotes(nodeText(args.NamedChild(0), src))
			}
			return name, label
		case "identifier", "attribute":
			return lastAttrSegment(nodeText(child, src)), ""
		}
	}
	return "", ""
}

// lastAttrSegment maps "pytest_bdd.then" to "then".
func lastAttrSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// pythonStmtCount counts executable statements in a block, skipping comments,
// bare pass, ellipsis and documentation-only string expressions.
func pythonStmtCount(block *sitter.Node, src []byte) int {
	count := 0
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		switch stmt.Type() {
		case "comment", "pass_statement":
			continue
		case "expression_statement":
			if stmt.NamedChildCount() == 1 {
				t := stmt.NamedChild(0).Type()
				if t == "string" || t == "ellipsis" {
					continue
				}
			}
		}
		count++
	}
	return count
}

// --- javascript / typescript ---

func extractJavaScript(path string, src []byte) ([]Binding, error) {
	return extractJSFamily(javascript.GetLanguage(), path, src)
}

func extractTypeScript(path string, src []byte) ([]Binding, error) {
	return extractJSFamily(typescript.GetLanguage(), path, src)
}

func extractJSFamily(lang *sitter.Language, path string, src []byte) ([]Binding, error) {
	tree, err := parseTree(lang, path, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var bindings []Binding
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "call_expression" {
				if b, ok := jsBinding(child, path, src); ok {
					bindings = append(bindings, b)
					continue
				}
			}
			walk(child)
		}
	}
	walk(tree.RootNode())
	return bindings, nil
}

func jsBinding(call *sitter.Node, path string, src []byte) (Binding, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return Binding{}, false
	}
	kind, ok := stepKindFromName(nodeText(fn, src))
	if !ok {
		return Binding{}, false
	}

	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() < 2 {
		return Binding{}, false
	}

	label := stripQuotes(nodeText(args.NamedChild(0), src))
	var impl *sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "arrow_function", "function", "function_expression":
			impl = arg
		}
	}
	if impl == nil {
		return Binding{}, false
	}

	body := impl.ChildByFieldName("body")
	if body == nil {
		return Binding{}, false
	}

	b := Binding{
		Kind:  kind,
		Label: label,
		File:  path,
		Line:  nodeLine(call),
		Body:  nodeText(body, src),
	}
	if body.Type() == "statement_block" {
		b.StmtCount = blockStmtCount(body)
	} else {
		// Concise arrow body: a single expression is one statement.
		b.StmtCount = 1
	}
	return b, true
}

// blockStmtCount counts named statements in a brace block, skipping comments
// and empty statements.
func blockStmtCount(block *sitter.Node) int {
	count := 0
	for i := 0; i < int(block.NamedChildCount()); i++ {
		switch block.NamedChild(i).Type() {
		case "comment", "empty_statement":
			continue
		}
		count++
	}
	return count
}

// --- go ---

func extractGo(path string, src []byte) ([]Binding, error) {
	tree, err := parseTree(golang.GetLanguage(), path, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	funcs := goFunctionDecls(root, src)

	var bindings []Binding
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "call_expression" {
				if b, ok := goBinding(child, path, src, funcs); ok {
					bindings = append(bindings, b)
				}
			}
			walk(child)
		}
	}
	walk(root)
	return bindings, nil
}

// goFunctionDecls indexes top-level function declarations by name so a step
// registration referencing a named function resolves to its body.
func goFunctionDecls(root *sitter.Node, src []byte) map[string]*sitter.Node {
	funcs := map[string]*sitter.Node{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		if decl.Type() != "function_declaration" {
			continue
		}
		name := decl.ChildByFieldName("name")
		if name != nil {
			funcs[nodeText(name, src)] = decl
		}
	}
	return funcs
}

func goBinding(call *sitter.Node, path string, src []byte, funcs map[string]*sitter.Node) (Binding, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "selector_expression" {
		return Binding{}, false
	}
	field := fn.ChildByFieldName("field")
	if field == nil {
		return Binding{}, false
	}
	kind, ok := stepKindFromName(nodeText(field, src))
	if !ok {
		return Binding{}, false
	}

	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() < 2 {
		return Binding{}, false
	}
	label := stripQuotes(nodeText(args.NamedChild(0), src))

	impl := args.NamedChild(1)
	var body *sitter.Node
	switch impl.Type() {
	case "func_literal":
		body = impl.ChildByFieldName("body")
	case "identifier":
		if decl, ok := funcs[nodeText(impl, src)]; ok {
			body = decl.ChildByFieldName("body")
		}
	}
	if body == nil {
		return Binding{}, false
	}

	return Binding{
		Kind:      kind,
		Label:     label,
		File:      path,
		Line:      nodeLine(call),
		Body:      nodeText(body, src),
		StmtCount: goStmtCount(body, src),
	}, true
}

// goStmtCount counts executable statements in a block. A body that is only
// `return nil` is the godog stub placeholder and counts as empty.
func goStmtCount(block *sitter.Node, src []byte) int {
	count := 0
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() == "return_statement" && block.NamedChildCount() == 1 {
			if strings.TrimSpace(nodeText(stmt, src)) == "return nil" {
				continue
			}
		}
		count++
	}
	return count
}

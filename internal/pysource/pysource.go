// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pysource inspects Python source with the tree-sitter Python grammar:
// syntax checking for generated code and signature extraction for prompts.
package pysource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// SyntaxError locates the first parse error in a Python source.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid python syntax at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Signature is one public callable or class found in a module.
type Signature struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Text string `json:"text"`
	Line int    `json:"line"`
}

// Signature kinds.
const (
	KindFunction = "function"
	KindMethod   = "method"
	KindClass    = "class"
)

func parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing python source: %w", err)
	}
	return tree, nil
}

// CheckSyntax returns a *SyntaxError when src does not parse as Python.
func CheckSyntax(ctx context.Context, src []byte) error {
	if strings.TrimSpace(string(src)) == "" {
		return &SyntaxError{Line: 1, Column: 1, Message: "empty source"}
	}
	tree, err := parse(ctx, src)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	msg := "unexpected input"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %s", bad.Type())
	} else if text := strings.TrimSpace(bad.Content(src)); text != "" {
		msg = fmt.Sprintf("unexpected %q", truncate(text, 40))
	}
	p := bad.StartPoint()
	return &SyntaxError{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Message: msg}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

// ExtractSignatures lists the public module-level functions, classes and
// class methods of src in source order. Sources that do not parse yield a
// *SyntaxError.
func ExtractSignatures(ctx context.Context, src []byte) ([]Signature, error) {
	if err := CheckSyntax(ctx, src); err != nil {
		return nil, err
	}
	tree, err := parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var out []Signature
	collect(tree.RootNode(), src, "", &out)
	return out, nil
}

func collect(parent *sitter.Node, src []byte, class string, out *[]Signature) {
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		node := unwrapDecorated(parent.NamedChild(i))
		if node == nil {
			continue
		}
		switch node.Type() {
		case "function_definition":
			name := fieldText(node, "name", src)
			if !public(name) {
				continue
			}
			sig := Signature{
				Kind: KindFunction,
				Name: name,
				Text: functionText(node, src),
				Line: int(node.StartPoint().Row) + 1,
			}
			if class != "" {
				sig.Kind = KindMethod
				sig.Name = class + "." + name
			}
			*out = append(*out, sig)
		case "class_definition":
			if class != "" {
				continue
			}
			name := fieldText(node, "name", src)
			if !public(name) {
				continue
			}
			text := "class " + name
			if supers := node.ChildByFieldName("superclasses"); supers != nil {
				text += supers.Content(src)
			}
			*out = append(*out, Signature{
				Kind: KindClass,
				Name: name,
				Text: text,
				Line: int(node.StartPoint().Row) + 1,
			})
			if body := node.ChildByFieldName("body"); body != nil {
				collect(body, src, name, out)
			}
		}
	}
}

func unwrapDecorated(n *sitter.Node) *sitter.Node {
	if n != nil && n.Type() == "decorated_definition" {
		return n.ChildByFieldName("definition")
	}
	return n
}

func functionText(node *sitter.Node, src []byte) string {
	var b strings.Builder
	if first := node.Child(0); first != nil && first.Type() == "async" {
		b.WriteString("async ")
	}
	b.WriteString("def ")
	b.WriteString(fieldText(node, "name", src))
	if params := node.ChildByFieldName("parameters"); params != nil {
		b.WriteString(collapse(params.Content(src)))
	} else {
		b.WriteString("()")
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		b.WriteString(" -> ")
		b.WriteString(collapse(ret.Content(src)))
	}
	return b.String()
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(src)
}

func public(name string) bool {
	if name == "" {
		return false
	}
	return name == "__init__" || name == "__call__" || !strings.HasPrefix(name, "_")
}

// collapse folds multi-line parameter lists onto one line.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// FormatSignatures renders signatures one per line for prompts.
func FormatSignatures(sigs []Signature) string {
	lines := make([]string, 0, len(sigs))
	for _, s := range sigs {
		indent := ""
		if s.Kind == KindMethod {
			indent = "    "
		}
		lines = append(lines, indent+s.Text)
	}
	return strings.Join(lines, "\n")
}

// ModuleName derives the dotted import name of a file relative to the
// project root: "src/pkg/util.py" -> "pkg.util", "pkg/__init__.py" -> "pkg".
func ModuleName(relPath string) string {
	p := filepath.ToSlash(filepath.Clean(relPath))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "src/")
	p = strings.TrimSuffix(p, ".py")
	p = strings.TrimSuffix(p, "/__init__")
	return strings.ReplaceAll(p, "/", ".")
}

// TestFileName is the file name used for generated tests of a module.
func TestFileName(module string) string {
	base := strings.ReplaceAll(module, ".", "_")
	return "test_" + base + "_generated.py"
}

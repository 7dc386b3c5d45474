package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterBackend holds the compiled grammar shared by every parse call
// for one language, mirroring the teacher's treeSitterParser scaffold.
type treeSitterBackend struct {
	language *sitter.Language
	lang     string
}

func newTreeSitterBackend(language *sitter.Language, lang string) treeSitterBackend {
	return treeSitterBackend{language: language, lang: lang}
}

func (b treeSitterBackend) Language() string { return b.lang }

// parseTree runs the tree-sitter parser and returns the root node plus the
// file split into lines; callers close the returned tree when done.
func (b treeSitterBackend) parseTree(source []byte) (*sitter.Tree, *sitter.Node, []string) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(b.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, nil, nil
	}
	return tree, tree.RootNode(), strings.Split(string(source), "\n")
}

// walkTree recursively visits every node in the tree; the visitor returns
// false to skip a node's children.
func walkTree(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visit)
	}
}

// directChildren returns node's direct children without descending further;
// used to find top-level declarations without also matching nested ones
// (e.g. a function declared inside another).
func directChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	children := make([]*sitter.Node, 0, node.ChildCount())
	for i := 0; i < int(node.ChildCount()); i++ {
		children = append(children, node.Child(uint(i)))
	}
	return children
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

func startLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func endLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// docStart walks backward from a declaration's start line over immediately
// preceding comment lines (no blank-line gap) to find where its doc comment
// block begins, so ChunkExtractor can include it per §4.5.
func docStart(lines []string, declStartLine int, isCommentLine func(string) bool) int {
	line := declStartLine
	idx := declStartLine - 2 // 0-based index of the line just above the declaration
	for idx >= 0 {
		trimmed := strings.TrimSpace(lines[idx])
		if trimmed == "" || !isCommentLine(trimmed) {
			break
		}
		line = idx + 1
		idx--
	}
	return line
}

func findChildByFieldName(node *sitter.Node, field string) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName(field)
}

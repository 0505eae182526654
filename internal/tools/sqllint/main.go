// Command sqllint enforces the SQL audit-marker convention: every SQL
// statement lives in a named constant whose first line is a
// `--sql <uuid>` marker, and executor calls never receive inline SQL
// literals. The marker is what the SQLRunner logs, so an unmarked
// statement would be invisible in the query audit trail.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	statementPattern = regexp.MustCompile(`(?is)^\s*(--sql[^\n]*\n\s*)?(select|insert|update|delete|with)\b`)
	markerPattern    = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

var executorMethods = map[string]bool{
	"Exec":     true,
	"Query":    true,
	"QueryRow": true,
}

type finding struct {
	pos     token.Position
	subject string
	message string
}

func main() {
	flag.Parse()
	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var findings []finding
	for _, root := range roots {
		fs, err := collectGoFiles(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		for _, path := range fs {
			found, err := lintFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
				os.Exit(1)
			}
			findings = append(findings, found...)
		}
	}

	if len(findings) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "sqllint: audit-marker violations")
	for _, f := range findings {
		fmt.Fprintf(os.Stderr, "  %s: %s (%s)\n", f.pos, f.message, f.subject)
	}
	os.Exit(1)
}

func collectGoFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(root) != ".go" {
			return nil, nil
		}
		return []string{root}, nil
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func lintFile(path string) ([]finding, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var findings []finding
	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.ValueSpec:
			for _, value := range node.Values {
				lit, ok := sqlLiteral(value)
				if !ok {
					continue
				}
				if !markerPattern.MatchString(firstLine(lit)) {
					findings = append(findings, finding{
						pos:     fset.Position(value.Pos()),
						subject: specNames(node),
						message: "sql constant missing --sql <uuid> marker",
					})
				}
			}
		case *ast.CallExpr:
			sel, ok := node.Fun.(*ast.SelectorExpr)
			if !ok || !executorMethods[sel.Sel.Name] || len(node.Args) < 2 {
				return true
			}
			// Args[0] is the context; Args[1] must be a named
			// constant, never an inline statement.
			if _, ok := sqlLiteral(node.Args[1]); ok {
				findings = append(findings, finding{
					pos:     fset.Position(node.Args[1].Pos()),
					subject: sel.Sel.Name,
					message: "executor called with inline sql literal",
				})
			}
		}
		return true
	})
	return findings, nil
}

// sqlLiteral reports whether the expression is a string literal that
// looks like a whole SQL statement.
func sqlLiteral(expr ast.Expr) (string, bool) {
	bl, ok := expr.(*ast.BasicLit)
	if !ok || bl.Kind != token.STRING {
		return "", false
	}
	raw, err := unquote(bl.Value)
	if err != nil {
		return "", false
	}
	if !statementPattern.MatchString(raw) {
		return "", false
	}
	return raw, true
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) > 1 && v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func specNames(spec *ast.ValueSpec) string {
	parts := make([]string, 0, len(spec.Names))
	for _, ident := range spec.Names {
		if ident != nil {
			parts = append(parts, ident.Name)
		}
	}
	return strings.Join(parts, ",")
}

// Command sqllint checks that every inline SQL constant carries the
// audit marker convention used across this repo: the first line of the
// query must be `--sql <uuid>`, and each marker UUID must be unique so
// that a query can be located from a single log line.
//
// Usage: sqllint [dir ...]
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern     = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type problem struct {
	file    string
	line    int
	name    string
	message string
}

type linter struct {
	fset     *token.FileSet
	seen     map[string]string // marker uuid -> "file:const" that first used it
	problems []problem
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	l := &linter{fset: token.NewFileSet(), seen: map[string]string{}}

	for _, target := range targets {
		if err := l.lintTarget(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}

	if len(l.problems) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL audit marker violations")
		for _, p := range l.problems {
			fmt.Fprintf(os.Stderr, "  %s:%d %s (%s)\n", p.file, p.line, p.message, p.name)
		}
		os.Exit(1)
	}
}

func (l *linter) lintTarget(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) == ".go" {
			return l.lintFile(target)
		}
		return nil
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
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
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		return l.lintFile(path)
	})
}

func (l *linter) lintFile(path string) error {
	file, err := parser.ParseFile(l.fset, path, nil, parser.ParseComments)
	if err != nil {
		return err
	}
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := constName(vs.Names, i)
			pos := l.fset.Position(bl.Pos())

			m := markerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				l.report(path, pos.Line, name, "missing or invalid --sql <uuid> marker")
				continue
			}
			key := m[1]
			if prev, dup := l.seen[key]; dup {
				l.report(path, pos.Line, name, "marker uuid already used by "+prev)
				continue
			}
			l.seen[key] = path + ":" + name
		}
		return true
	})
	return nil
}

func (l *linter) report(file string, line int, name, message string) {
	l.problems = append(l.problems, problem{file: file, line: line, name: name, message: message})
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func constName(idents []*ast.Ident, i int) string {
	if i < len(idents) && idents[i] != nil {
		return idents[i].Name
	}
	parts := make([]string, 0, len(idents))
	for _, id := range idents {
		if id != nil {
			parts = append(parts, id.Name)
		}
	}
	return strings.Join(parts, ",")
}

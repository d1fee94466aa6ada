package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Lower layers never import higher ones:
// domain < platform < data < realtime < services < http < app.
var layers = []struct {
	name   string
	prefix string
	banned []string
}{
	{"domain", "internal/domain/", []string{"platform/", "data/", "realtime/", "services", "http", "app"}},
	{"platform", "internal/platform/", []string{"data/", "realtime/", "services", "http", "app"}},
	{"data", "internal/data/", []string{"realtime/", "services", "http", "app"}},
	{"realtime", "internal/realtime/", []string{"data/", "services", "http", "app"}},
	{"services", "internal/services/", []string{"http", "app"}},
	{"http", "internal/http/", []string{"app", "data/"}},
}

func TestLayerImports(t *testing.T) {
	root, modulePath := moduleRoot(t)
	fset := token.NewFileSet()

	var violations []string
	walkErr := filepath.WalkDir(filepath.Join(root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		var banned []string
		for _, l := range layers {
			if strings.HasPrefix(rel, l.prefix) {
				for _, b := range l.banned {
					banned = append(banned, modulePath+"/internal/"+b)
				}
				break
			}
		}
		if len(banned) == 0 {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			for _, bad := range banned {
				if imp == bad || strings.HasPrefix(imp, strings.TrimSuffix(bad, "/")+"/") {
					violations = append(violations, fmt.Sprintf("- %s imports %q", rel, imp))
					break
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk internal/: %v", walkErr)
	}
	if len(violations) > 0 {
		t.Fatalf("layer violations:\n%s", strings.Join(violations, "\n"))
	}
}

// The binaries only talk to the app package and the service result types.
func TestCommandsStayThin(t *testing.T) {
	root, modulePath := moduleRoot(t)
	allowed := []string{
		modulePath + "/internal/app",
		modulePath + "/internal/services",
	}
	fset := token.NewFileSet()

	var violations []string
	walkErr := filepath.WalkDir(filepath.Join(root, "cmd"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil || !strings.HasPrefix(imp, modulePath+"/") {
				continue
			}
			ok := false
			for _, a := range allowed {
				if imp == a {
					ok = true
					break
				}
			}
			if !ok {
				rel, _ := filepath.Rel(root, path)
				violations = append(violations, fmt.Sprintf("- %s imports %q", filepath.ToSlash(rel), imp))
			}
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk cmd/: %v", walkErr)
	}
	if len(violations) > 0 {
		t.Fatalf("cmd imports internals directly:\n%s", strings.Join(violations, "\n"))
	}
}

func moduleRoot(t *testing.T) (string, string) {
	t.Helper()
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found from %s", start)
		}
		dir = parent
	}
	mp, err := readModulePath(filepath.Join(dir, "go.mod"))
	if err != nil {
		t.Fatalf("read module path: %v", err)
	}
	return dir, mp
}

func readModulePath(goModPath string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mp := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if mp == "" {
			return "", fmt.Errorf("empty module path in %s", goModPath)
		}
		return mp, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module path not found in %s", goModPath)
}

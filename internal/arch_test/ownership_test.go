package arch_test

import (
	"go/ast"
	"go/token"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// workerPkgs run off the UI goroutine and talk to it only through bus
// queues.
var workerPkgs = []string{
	"aur", "details", "executor", "faillock", "history",
	"index", "installed", "pacman", "preflight", "search",
}

// sourceDirs returns every internal package directory plus cmd.
func sourceDirs(t *testing.T) map[string]string {
	t.Helper()
	dirs := map[string]string{"cmd": filepath.Join(repoRoot(t), "cmd")}
	for _, pkg := range internalPackages(t) {
		dirs[pkg] = filepath.Join(internalDirPath(t), pkg)
	}
	return dirs
}

// TestOnlyStateAssignsAppFields keeps the reducer the sole writer of the App:
// outside internal/state, code reaching the App through a field named App
// or app may call its methods but never assign its fields.
func TestOnlyStateAssignsAppFields(t *testing.T) {
	t.Parallel()
	for pkg, dir := range sourceDirs(t) {
		if pkg == "state" {
			continue
		}
		fset := token.NewFileSet()
		for _, f := range parsePkg(t, fset, dir) {
			ast.Inspect(f.node, func(n ast.Node) bool {
				var lhs []ast.Expr
				switch s := n.(type) {
				case *ast.AssignStmt:
					lhs = s.Lhs
				case *ast.IncDecStmt:
					lhs = []ast.Expr{s.X}
				}
				for _, e := range lhs {
					if reachesAppField(e) {
						t.Errorf("%s:%d: App field assigned outside internal/state; add a state method",
							relPath(f.path), fset.Position(e.Pos()).Line)
					}
				}
				return true
			})
		}
	}
}

// reachesAppField reports whether e writes below an App: m.App.X, s.app.X[i]
// and the like. Assigning the App pointer itself is allowed.
func reachesAppField(e ast.Expr) bool {
	below := false
	for {
		switch x := e.(type) {
		case *ast.SelectorExpr:
			if below && (x.Sel.Name == "App" || x.Sel.Name == "app") {
				return true
			}
			below = true
			e = x.X
		case *ast.IndexExpr:
			below = true
			e = x.X
		case *ast.StarExpr:
			e = x.X
		case *ast.ParenExpr:
			e = x.X
		default:
			return false
		}
	}
}

// logMethods are the hclog.Logger methods that record their arguments.
var logMethods = []string{"Trace", "Debug", "Info", "Warn", "Error", "Log", "With"}

// TestPasswordsStayOutOfLogs rejects logger calls whose arguments mention a
// password value. Requests carry the sudo password to the askpass helper;
// it never reaches a log line.
func TestPasswordsStayOutOfLogs(t *testing.T) {
	t.Parallel()
	for _, dir := range sourceDirs(t) {
		fset := token.NewFileSet()
		for _, f := range parsePkg(t, fset, dir) {
			ast.Inspect(f.node, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok || !slices.Contains(logMethods, sel.Sel.Name) {
					return true
				}
				for _, arg := range call.Args {
					if name := passwordRef(arg); name != "" {
						t.Errorf("%s:%d: %s passed to %s",
							relPath(f.path), fset.Position(arg.Pos()).Line, name, sel.Sel.Name)
					}
				}
				return true
			})
		}
	}
}

// passwordRef returns the first identifier under e that names a password
// value, or "".
func passwordRef(e ast.Expr) string {
	var found string
	ast.Inspect(e, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || found != "" {
			return found == ""
		}
		lower := strings.ToLower(id.Name)
		if id.Name == "pw" || (strings.Contains(lower, "password") && !strings.HasPrefix(id.Name, "Err")) {
			found = id.Name
		}
		return true
	})
	return found
}

// TestWorkersStayOffState keeps background packages free of the reducer
// and the UI. Their results travel back as messages.
func TestWorkersStayOffState(t *testing.T) {
	t.Parallel()
	for _, pkg := range workerPkgs {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			for _, imp := range importsOf(t, filepath.Join(internalDirPath(t), pkg)) {
				if imp == "state" || imp == "tui" {
					t.Errorf("worker package %s imports internal/%s", pkg, imp)
				}
			}
		})
	}
}

func TestReachesAppField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want bool
	}{
		{"m.App.Input", true},
		{"s.app.Recent", true},
		{"m.App.Results[0].Description", true},
		{"m.App", false},
		{"m.Password", false},
		{"x.Apps.Input", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			if got := reachesAppField(mustExpr(t, tt.src)); got != tt.want {
				t.Errorf("reachesAppField(%s) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestPasswordRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"req.Password", "Password"},
		{"pw", "pw"},
		{`fmt.Sprintf("%q", password)`, "password"},
		{"faillock.ErrBadPassword", ""},
		{`"checking password"`, ""},
		{"err", ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			if got := passwordRef(mustExpr(t, tt.src)); got != tt.want {
				t.Errorf("passwordRef(%s) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

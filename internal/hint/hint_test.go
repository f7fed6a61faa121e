package hint

import (
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestDetectRgSimple(t *testing.T) {
	tool, argv := Detect("rg foo")
	if tool != "terminal:rg" {
		t.Fatalf("expected terminal:rg, got %q", tool)
	}
	if !reflect.DeepEqual(argv, []string{"rg", "foo"}) {
		t.Fatalf("unexpected argv: %#v", argv)
	}
}

func TestDetectWithEnvAndSudo(t *testing.T) {
	tool, argv := Detect("RIPGREP_CONFIG_PATH=cfg sudo rg --json pattern .")
	if tool != "terminal:rg" {
		t.Fatalf("expected terminal:rg, got %q", tool)
	}
	want := []string{"RIPGREP_CONFIG_PATH=cfg", "sudo", "rg", "--json", "pattern", "."}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("expected full argv %#v, got %#v", want, argv)
	}
}

func TestDetectNonSpecialCommand(t *testing.T) {
	tool, argv := Detect("echo hello")
	if tool != "" {
		t.Fatalf("expected no hint, got %q", tool)
	}
	if !reflect.DeepEqual(argv, []string{"echo", "hello"}) {
		t.Fatalf("unexpected argv: %#v", argv)
	}
}

func TestDetectAbsolutePath(t *testing.T) {
	tool, argv := Detect("/usr/bin/rg foo bar")
	if tool != "terminal:rg" {
		t.Fatalf("expected terminal:rg, got %q", tool)
	}
	if len(argv) != 3 || !strings.HasSuffix(argv[0], "rg") {
		t.Fatalf("unexpected argv: %#v", argv)
	}
}

func TestDetectAliasKeepsLiteralToken(t *testing.T) {
	tool, argv := Detect("ripgrep pattern .")
	if tool != "terminal:rg" {
		t.Fatalf("expected terminal:rg, got %q", tool)
	}
	if argv[0] != "ripgrep" {
		t.Fatalf("expected alias preserved in argv, got %q", argv[0])
	}
}

func TestDetectUnparseable(t *testing.T) {
	for _, input := range []string{"", "   ", `echo "unterminated`, "echo 'open", `rg foo\`} {
		tool, argv := Detect(input)
		if tool != "" || argv != nil {
			t.Fatalf("Detect(%q) = (%q, %#v), expected sentinel", input, tool, argv)
		}
	}
}

func TestDetectEdgeCases(t *testing.T) {
	cases := []struct {
		name    string
		command string
		tool    string
		argv    []string
	}{
		{"case sensitive", "RG foo", "", []string{"RG", "foo"}},
		{"only assignments", "FOO=1 BAR=2", "", []string{"FOO=1", "BAR=2"}},
		{"bare sudo", "sudo", "", []string{"sudo"}},
		{"doas prefix", "doas rg x", "terminal:rg", []string{"doas", "rg", "x"}},
		{"single sudo skipped", "sudo sudo rg", "", []string{"sudo", "sudo", "rg"}},
		{"quoted executable", `"/opt/my tools/rg" -n x`, "terminal:rg", []string{"/opt/my tools/rg", "-n", "x"}},
		{"relative path", "./bin/ripgrep x", "terminal:rg", []string{"./bin/ripgrep", "x"}},
		{"not an assignment", "=x rg", "", []string{"=x", "rg"}},
		{"rg as argument", "echo rg", "", []string{"echo", "rg"}},
		{"pipeline words", "rg foo | head", "terminal:rg", []string{"rg", "foo", "|", "head"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tool, argv := Detect(tc.command)
			if tool != tc.tool {
				t.Fatalf("expected tool %q, got %q", tc.tool, tool)
			}
			if !reflect.DeepEqual(argv, tc.argv) {
				t.Fatalf("expected argv %#v, got %#v", tc.argv, argv)
			}
		})
	}
}

func TestDetectIsRepeatable(t *testing.T) {
	input := `FOO=bar sudo rg -e "a b" .`
	tool1, argv1 := Detect(input)
	tool2, argv2 := Detect(input)
	if tool1 != tool2 || !reflect.DeepEqual(argv1, argv2) {
		t.Fatalf("expected identical results, got (%q %#v) and (%q %#v)", tool1, argv1, tool2, argv2)
	}
}

func TestDetectConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tool, _ := Detect("sudo ripgrep x"); tool != "terminal:rg" {
				t.Errorf("unexpected tool %q", tool)
			}
		}()
	}
	wg.Wait()
}

func TestIsAssignment(t *testing.T) {
	for word, want := range map[string]bool{
		"A=1":       true,
		"_x=":       true,
		"PATH=/bin": true,
		"1A=2":      false,
		"=value":    false,
		"--flag=1":  false,
		"rg":        false,
	} {
		if got := IsAssignment(word); got != want {
			t.Fatalf("IsAssignment(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestJoin(t *testing.T) {
	got := Join([]string{"rg", "a b", "it's", "."})
	if !strings.HasPrefix(got, "rg ") {
		t.Fatalf("expected plain words left unquoted, got %s", got)
	}
	words, err := Split(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(words, []string{"rg", "a b", "it's", "."}) {
		t.Fatalf("join did not round-trip: %#v", words)
	}
}

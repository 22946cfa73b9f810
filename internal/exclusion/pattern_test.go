package exclusion

import "testing"

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		match   []string
		noMatch []string
	}{
		{
			pattern: "*module*",
			match:   []string{"src/module/file.rs", "module.rs", "module"},
			noMatch: []string{"src/mod.rs", "unrelated.rs", "src/mod"},
		},
		{
			pattern: "*/lib.rs",
			match:   []string{"src/lib.rs", "a/b/lib.rs"},
			noMatch: []string{"lib.rs", "src/notlib.rs", "src/lib.rs.bak"},
		},
		{
			pattern: "src/main.rs",
			match:   []string{"src/main.rs"},
			noMatch: []string{"src/main.rs2", "x/src/main.rs", "src/mainXrs"},
		},
		{
			pattern: "tests/(a|b)+[0-9].rs",
			match:   []string{"tests/(a|b)+[0-9].rs"},
			noMatch: []string{"tests/a1.rs", "tests/ab9.rs"},
		},
		{
			pattern: "",
			match:   []string{""},
			noMatch: []string{"a"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.pattern, func(t *testing.T) {
			t.Parallel()

			re, err := CompilePattern(tc.pattern)
			if err != nil {
				t.Fatalf("CompilePattern returned error: %v", err)
			}
			for _, s := range tc.match {
				if !re.MatchString(s) {
					t.Fatalf("expected %q to match %q", tc.pattern, s)
				}
			}
			for _, s := range tc.noMatch {
				if re.MatchString(s) {
					t.Fatalf("expected %q not to match %q", tc.pattern, s)
				}
			}
		})
	}
}

func TestCompilePreservesOrder(t *testing.T) {
	t.Parallel()

	patterns := []string{"a*", "*b", "c"}
	compiled, err := Compile(patterns)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if len(compiled) != len(patterns) {
		t.Fatalf("expected %d matchers, got %d", len(patterns), len(compiled))
	}
	if !compiled[2].MatchString("c") || compiled[2].MatchString("ab") {
		t.Fatalf("matchers out of order")
	}
}

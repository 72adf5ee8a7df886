package normalize

import "testing"

func TestWrapFileTokens(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, in, want string
	}{
		{"bare", "edit src/cache.js now", "edit `src/cache.js` now"},
		{"already_wrapped", "edit `src/cache.js` now", "edit `src/cache.js` now"},
		{"mixed", "`a.go` and b.go", "`a.go` and `b.go`"},
		{"all_extensions", "a.js a.ts a.json a.md a.css a.html a.jsx a.tsx a.py a.java a.go a.c a.cpp",
			"`a.js` `a.ts` `a.json` `a.md` `a.css` `a.html` `a.jsx` `a.tsx` `a.py` `a.java` `a.go` `a.c` `a.cpp`"},
		{"hyphen_and_dot_dirs", "see ./my-app/index.html", "see `./my-app/index.html`"},
		{"dotfile", "update .eslintrc.json", "update `.eslintrc.json`"},
		{"extension_prefix_only", "a.jsonl and b.gomod", "a.jsonl and b.gomod"},
		{"no_stem", "the .js files", "the .js files"},
		{"with_line_number", "fix a.go:12", "fix `a.go`:12"},
		{"parens", "(x.py)", "(`x.py`)"},
		{"touching_span_left", "`code`x.js", "`code`x.js"},
		{"touching_span_right", "x.js`code`", "x.js`code`"},
		{"unmatched_backtick_dropped", "tick ` here x.js", "tick  here `x.js`"},
		{"unmatched_merges_text", "a`.js", "`a.js`"},
		{"double_tick_span", "``a `b.js` c`` d.md", "``a `b.js` c`` `d.md`"},
		{"trailing_dots", "main.go...", "`main.go`..."},
		{"no_tokens", "just words", "just words"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := WrapFileTokens(tt.in)
			if got != tt.want {
				t.Errorf("WrapFileTokens(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := WrapFileTokens(got); again != got {
				t.Errorf("second wrap changed %q to %q", got, again)
			}
		})
	}
}

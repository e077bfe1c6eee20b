package ini

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		want     map[string]map[string]interface{}
		wantLine int
	}{
		{
			name:   "Empty",
			source: "",
			want:   map[string]map[string]interface{}{},
		},
		{
			name:   "OnlyComments",
			source: "; one\n# two\n\n",
			want:   map[string]map[string]interface{}{},
		},
		{
			name:   "EmptySection",
			source: "[empty]\n",
			want:   map[string]map[string]interface{}{"empty": {}},
		},
		{
			name:   "TypedValues",
			source: "[s]\ni = 1\nf = 1.5\nb = true\nt = text\ne =\n",
			want: map[string]map[string]interface{}{
				"s": {"i": 1, "f": 1.5, "b": true, "t": "text", "e": ""},
			},
		},
		{
			name:   "TrailingComments",
			source: "[s] ; section comment\nk = v # value comment\n",
			want:   map[string]map[string]interface{}{"s": {"k": "v"}},
		},
		{
			name:   "SpaceAroundNames",
			source: "[  spaced name  ]\n  k  =  a b  \n",
			want:   map[string]map[string]interface{}{"spaced name": {"k": "a b"}},
		},
		{
			name:   "ValueWithEquals",
			source: "[s]\nk = a=b\n",
			want:   map[string]map[string]interface{}{"s": {"k": "a=b"}},
		},
		{
			name:   "RepeatedSectionReplaces",
			source: "[s]\na = 1\nc = 4\n[t]\nx = 0\n[s]\nb = 2\na = 3\n",
			want: map[string]map[string]interface{}{
				"s": {"a": 3, "b": 2},
				"t": {"x": 0},
			},
		},
		{
			name:   "RepeatedEmptySection",
			source: "[s]\na = 1\n[s]\n",
			want:   map[string]map[string]interface{}{"s": {}},
		},
		{
			name:   "CRLF",
			source: "[s]\r\nk = v\r\n",
			want:   map[string]map[string]interface{}{"s": {"k": "v"}},
		},
		{
			name:     "MissingBracket",
			source:   "[s]\nk = v\n[broken\n",
			wantLine: 3,
		},
		{
			name:     "EmptySectionName",
			source:   "[ ]\n",
			wantLine: 1,
		},
		{
			name:     "PropertyOutsideSection",
			source:   "\nk = v\n",
			wantLine: 2,
		},
		{
			name:     "KeyWithSpace",
			source:   "[s]\nmy key = v\n",
			wantLine: 2,
		},
		{
			name:     "MissingKey",
			source:   "[s]\n= v\n",
			wantLine: 2,
		},
		{
			name:     "NotAProperty",
			source:   "[s]\njust text\n",
			wantLine: 2,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(test.source))
			if test.wantLine > 0 {
				var syntaxErr *SyntaxError
				if !errors.As(err, &syntaxErr) {
					t.Fatalf("Parse(...) error = %v; want *SyntaxError", err)
				}
				if syntaxErr.Line != test.wantLine {
					t.Errorf("SyntaxError.Line = %d; want %d", syntaxErr.Line, test.wantLine)
				}
				return
			}
			if err != nil {
				t.Fatal("Parse:", err)
			}
			if diff := cmp.Diff(test.want, got.Map()); diff != "" {
				t.Errorf("Map() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadReplacesNamedSections(t *testing.T) {
	b := New()
	if err := b.Load(strings.NewReader("[a]\nx = 1\ny = 2\n[c]\nw = kept\n")); err != nil {
		t.Fatal(err)
	}
	if err := b.Load(strings.NewReader("[a]\ny = 3\n[b]\nz = true\n")); err != nil {
		t.Fatal(err)
	}
	want := map[string]map[string]interface{}{
		"a": {"y": 3},
		"b": {"z": true},
		"c": {"w": "kept"},
	}
	if diff := cmp.Diff(want, b.Map()); diff != "" {
		t.Errorf("Map() (-want +got):\n%s", diff)
	}
}

func TestLoadFailureLeavesBufferUnchanged(t *testing.T) {
	b := New()
	if err := b.Load(strings.NewReader("[a]\nx = 1\n")); err != nil {
		t.Fatal(err)
	}
	if err := b.Load(strings.NewReader("[a]\nx = 2\n[b\n")); err == nil {
		t.Fatal("Load succeeded on malformed input")
	}
	if got, err := b.GetInt("a", "x"); err != nil || got != 1 {
		t.Errorf("GetInt(a, x) = %d, %v; want 1, <nil>", got, err)
	}
	if b.HasSection("b") {
		t.Error("section b present after failed load")
	}
}

func TestParseLongLine(t *testing.T) {
	long := strings.Repeat("x", 100*1024)
	b, err := Parse(strings.NewReader("[s]\nk = " + long + "\nn = 1\n"))
	if err != nil {
		t.Fatal("Parse:", err)
	}
	if got, err := b.GetString("s", "k"); err != nil || got != long {
		t.Errorf("GetString(s, k) returned %d bytes, %v; want %d bytes", len(got), err, len(long))
	}
	if got, err := b.GetInt("s", "n"); err != nil || got != 1 {
		t.Errorf("GetInt(s, n) = %d, %v; want 1, <nil>", got, err)
	}
}

func TestLoadFile(t *testing.T) {
	b := New()
	if err := b.LoadFile(filepath.Join("testdata", "test.ini")); err != nil {
		t.Fatal(err)
	}
	want := []string{"01_comments", "02_whitespace", "03_strings", "04_integers", "05_floats", "06_booleans"}
	if diff := cmp.Diff(want, b.Sections()); diff != "" {
		t.Errorf("Sections() (-want +got):\n%s", diff)
	}
	if got, _ := b.GetString("01_comments", "key01"); got != "value01" {
		t.Errorf("GetString(01_comments, key01) = %q; want \"value01\"", got)
	}
	if got, _ := b.GetString("02_whitespace", "key01"); got != "padded value" {
		t.Errorf("GetString(02_whitespace, key01) = %q; want \"padded value\"", got)
	}
}

func TestLoadFileMissing(t *testing.T) {
	err := New().LoadFile(filepath.Join(t.TempDir(), "missing.ini"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v; want os.ErrNotExist", err)
	}
}

func TestUnmarshalTextReplaces(t *testing.T) {
	b := New()
	if err := b.AddValue("old", "k", 1); err != nil {
		t.Fatal(err)
	}
	if err := b.UnmarshalText([]byte("[new]\nk = 2\n")); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"new"}, b.Sections()); diff != "" {
		t.Errorf("Sections() (-want +got):\n%s", diff)
	}
}

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kolkov/tracecheck/internal/race/analyzer"
	"github.com/kolkov/tracecheck/internal/trace"
	"github.com/kolkov/tracecheck/internal/trace/parser"
	"github.com/kolkov/tracecheck/internal/trace/token"
)

func verdictOf(t *testing.T, text string, opts ...analyzer.Option) *analyzer.Verdict {
	t.Helper()
	toks, err := token.Tokenize([]byte(text))
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	tr, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return analyzer.New(opts...).Analyze(tr)
}

const (
	cleanTrace = "T1|acq(L1)|1\nT1|w(V1)|2\nT1|rel(L1)|3\nT2|acq(L1)|4\nT2|w(V1)|5\nT2|rel(L1)|6\n"
	raceTrace  = "T1|w(V1)|1\nT2|w(V1)|2\n"
	mixedTrace = "T1|w(V1.0[2])|1\nT2|r(V1.0[2])|2\nT1|rel(L3)|3\nT1|fork(T4)|4\n"
)

// TestText tests the human-readable format.
func TestText(t *testing.T) {
	tests := []struct {
		name         string
		trace        string
		opts         Options
		wantContains []string
		wantMissing  []string
	}{
		{
			name:         "clean",
			trace:        cleanTrace,
			wantContains: []string{CleanMessage + "\n"},
			wantMissing:  []string{"WARNING", separator},
		},
		{
			name:  "race",
			trace: raceTrace,
			wantContains: []string{
				separator + "\nWARNING: DATA RACE (write-write)\n",
				"write of V1 by T1 at line 1 races with write by T2 at line 2",
				"  lines: 1, 2\n",
				"Found 1 violation(s)\n",
			},
			wantMissing: []string{CleanMessage},
		},
		{
			name:  "mixed with notes",
			trace: mixedTrace,
			wantContains: []string{
				"WARNING: DATA RACE (write-read)",
				"WARNING: LOCK DISCIPLINE (release-not-held)",
				"Found 2 violation(s)",
				"note: unjoined-thread: T4 forked by T1 at line 4 is never joined",
			},
		},
		{
			name:         "notes hidden",
			trace:        mixedTrace,
			opts:         Options{HideNotes: true},
			wantContains: []string{"Found 2 violation(s)"},
			wantMissing:  []string{"note:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Text(&buf, verdictOf(t, tt.trace), tt.opts); err != nil {
				t.Fatalf("Text() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.wantMissing {
				if strings.Contains(out, unwanted) {
					t.Errorf("output contains %q:\n%s", unwanted, out)
				}
			}
			if strings.Contains(out, "\x1b[") {
				t.Errorf("colour codes with Color disabled:\n%q", out)
			}
		})
	}
}

// TestText_Color tests that colour is applied when enabled.
func TestText_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, verdictOf(t, raceTrace), Options{Color: true}); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("no colour codes with Color enabled:\n%q", buf.String())
	}
}

// TestJSON tests the machine-readable format.
func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, verdictOf(t, mixedTrace), Options{Format: FormatJSON}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if doc.Clean {
		t.Error("Clean = true")
	}
	if len(doc.Violations) != 2 || len(doc.Notes) != 1 {
		t.Fatalf("violations = %d, notes = %d, want 2 and 1", len(doc.Violations), len(doc.Notes))
	}

	race := doc.Violations[0]
	want := Finding{
		Kind:     "write-read",
		Category: "data race",
		Lines:    []trace.Line{1, 2},
		Threads:  []string{"T1", "T2"},
		Location: "V1.0[2]",
		Message:  race.Message,
	}
	if !reflect.DeepEqual(race, want) {
		t.Errorf("race = %+v, want %+v", race, want)
	}
	if doc.Violations[1].Locks[0] != "L3" {
		t.Errorf("locks = %v, want [L3]", doc.Violations[1].Locks)
	}
	if doc.Stats.Events != 4 || doc.Stats.Threads != 3 {
		t.Errorf("stats = %+v", doc.Stats)
	}
}

// TestJSON_Clean tests that a clean verdict has an empty violation list.
func TestJSON_Clean(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, verdictOf(t, cleanTrace)); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"violations": []`) || !strings.Contains(buf.String(), `"clean": true`) {
		t.Errorf("JSON() = %s", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

// TestText_WriteError tests that write errors are returned.
func TestText_WriteError(t *testing.T) {
	if err := Text(failingWriter{}, verdictOf(t, raceTrace), Options{}); err == nil {
		t.Error("Text() succeeded on a failing writer")
	}
}

// TestParseFormat tests format names.
func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON} {
		got, err := ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) succeeded")
	}
}

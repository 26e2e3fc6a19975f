package decompiler

import (
	"reflect"
	"strings"
	"testing"

	"github.com/zurustar/iescript/pkg/compiler/compiler"
	"github.com/zurustar/iescript/pkg/game"
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/ids/idstest"
)

func profile(t *testing.T, name string) *game.Profile {
	t.Helper()
	p, err := game.Builtin().Get(name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func compile(t *testing.T, p *game.Profile, src string) string {
	t.Helper()
	r := compiler.New(idstest.Resolver(), p, compiler.Options{}).Compile(src)
	if r.Diags.HasErrors() {
		t.Fatalf("compile errors: %v", r.Diags.Errors())
	}
	return r.Code
}

// statements returns the indented statement lines of a decompiled block.
func statements(src string) []string {
	var out []string
	for _, l := range strings.Split(src, "\n") {
		if strings.HasPrefix(l, "  ") && !strings.HasPrefix(strings.TrimSpace(l), "RESPONSE") {
			out = append(out, strings.TrimSpace(l))
		}
	}
	return out
}

func TestDecompile_MinimalBlock(t *testing.T) {
	p := profile(t, "bg2")
	code := compile(t, p, "IF\nTrue()\nTHEN\nRESPONSE #100\nNoAction()\nEND\n")

	r := New(idstest.Resolver(), p, Options{}).Decompile(code, true)
	want := "IF\n  True()\nTHEN\n  RESPONSE #100\n    NoAction()\nEND\n\n"
	if r.Source != want {
		t.Errorf("Decompile() =\n%q\nwant\n%q", r.Source, want)
	}
	if r.Diags.HasErrors() || r.Diags.WarningCount() != 0 {
		t.Errorf("unexpected diagnostics: %v", r.Diags.All())
	}
}

func TestDecompile_EmptyObjectIsAnyone(t *testing.T) {
	p := profile(t, "bg2")
	code := "SC\nCR\nCO\nTR\n16412 0 0 0 0 \"\" \"\" OB\n0 0 0 0 0 0 0 0 0 0 0 0 \"\"OB\nTR\nCO\n" +
		"RS\nRE\n100AC\n3OB\n0 0 0 0 0 0 0 0 0 0 0 0 \"\"OB\nOB\n0 0 0 0 0 0 0 0 0 0 0 0 \"\"OB\n" +
		"OB\n0 0 0 0 0 0 0 0 0 0 0 0 \"\"OB\n0 0 0 0 0\"\" \"\" AC\nRE\nRS\nCR\nSC\n"

	r := New(idstest.Resolver(), p, Options{}).Decompile(code, true)
	got := statements(r.Source)
	want := []string{"See([ANYONE])", "Attack([ANYONE])"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("statements = %q, want %q", got, want)
	}
}

func TestDecompile_RoundTrip(t *testing.T) {
	tests := []struct {
		profile string
		trigger string
		action  string
	}{
		{"bg2", "See(NearestEnemyOf(Myself))", "NoAction()"},
		{"bg2", "!See([ENEMY.HUMANOID.0.MAGE])", `SetGlobal("Var","LOCALS",2)`},
		{"bg2", `Global("Var","GLOBAL",3)`, "ActionOverride(Player1,Attack(NearestEnemyOf(Myself)))"},
		{"bg2", `GlobalTimerExact("Timer","GLOBAL")`, `PlaySound("MYSOUND",2)`},
		{"bg2", "StateCheck(Myself,STATE_SLEEPING | STATE_PANIC)", `PlaySound("MYSOUND")`},
		{"bg2", "AttackedBy([PC],MELEE)", "MoveToPoint([10.-20])"},
		{"bg2", `Global("Variable","AR0602",0)`, "ForceSpell(LastSeenBy(Player2),WIZARD_MAGIC_MISSILE)"},
		{"bg2", `Global("Variable","BG0100",0)`, `IncrementGlobal("Var","BG0100",1)`},
		{"bg2", `Global("foo","BD0010A",1)`, `SetGlobal("foo","BD0010A",1)`},
		{"bg2", `Dead("Imoen")`, `ActionOverride("Imoen",SetGlobal("Var","GLOBAL",1))`},
		{"bg2", "Class(Myself,MAGE)", `SetGlobalTimer("T","GLOBAL",ONE_DAY)`},
		{"iwd", "See([ENEMY][10.20.30.40])", "Attack(NearestEnemyOf([PC]))"},
		{"pst", "See([ENEMY.DUSTMEN])", `SetGlobal("Var","GLOBAL",1)`},
		{"iwd2", "See([PC.0.0.0.0.0.0.DROW.BARBARIAN])", `Attack("Imoen")`},
	}
	for _, tt := range tests {
		t.Run(tt.profile+" "+tt.trigger, func(t *testing.T) {
			p := profile(t, tt.profile)
			src := "IF\n" + tt.trigger + "\nTHEN\nRESPONSE #100\n" + tt.action + "\nEND\n"
			r := New(idstest.Resolver(), p, Options{NoComments: true}).Decompile(compile(t, p, src), true)
			got := statements(r.Source)
			want := []string{tt.trigger, tt.action}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("statements = %q, want %q", got, want)
			}
			if r.Diags.HasErrors() || r.Diags.WarningCount() != 0 {
				t.Errorf("unexpected diagnostics: %v", r.Diags.All())
			}
		})
	}
}

func TestDecompile_Comments(t *testing.T) {
	p := profile(t, "bg2")
	src := "IF\nTrue()\nTHEN\nRESPONSE #100\n" +
		"DisplayString(Myself,1234)\n" +
		"CreateCreature(\"IMOEN\",[1.2],0)\n" +
		"PlaySound(\"MYSOUND\")\n" +
		"DisplayString(Myself,42)\n" +
		"END\n"
	r := New(idstest.Resolver(), p, Options{}).Decompile(compile(t, p, src), false)

	want := []string{
		"True()",
		`DisplayString(Myself,1234)  // "Hello there"`,
		`CreateCreature("IMOEN",[1.2],0)  // Imoen`,
		`PlaySound("MYSOUND")`,
		`DisplayString(Myself,42)  // "The answer"`,
	}
	if got := statements(r.Source); !reflect.DeepEqual(got, want) {
		t.Errorf("statements =\n%q\nwant\n%q", got, want)
	}
	if want := []string{"IMOEN.CRE", "MYSOUND.WAV"}; !reflect.DeepEqual(r.ResourcesUsed, want) {
		t.Errorf("ResourcesUsed = %v, want %v", r.ResourcesUsed, want)
	}
	if want := []int64{42, 1234}; !reflect.DeepEqual(r.StringRefsUsed, want) {
		t.Errorf("StringRefsUsed = %v, want %v", r.StringRefsUsed, want)
	}
}

func TestDecompile_OrIndentation(t *testing.T) {
	p := profile(t, "bg2")
	code := compile(t, p, "IF\nOR(2)\nTrue()\nSee([PC])\nInParty(Myself)\nTHEN\nRESPONSE #50\nNoAction()\nRESPONSE #50\nDestroySelf()\nEND\n")
	r := New(idstest.Resolver(), p, Options{}).Decompile(code, true)

	want := "IF\n  OR(2)\n    True()\n    See([PC])\n  InParty(Myself)\nTHEN\n" +
		"  RESPONSE #50\n    NoAction()\n  RESPONSE #50\n    DestroySelf()\nEND\n\n"
	if r.Source != want {
		t.Errorf("Decompile() =\n%s\nwant\n%s", r.Source, want)
	}
}

func TestDecompile_Diagnostics(t *testing.T) {
	p := profile(t, "bg2")
	obj := "0 0 0 0 0 0 0 0 0 0 0 0 \"\""
	code := "SC\nCR\nCO\n" +
		"TR\n16423 0 0 0 0 \"\" \"\" OB\n" + obj + "OB\nTR\n" + // line 4
		"TR\n16423 4096 0 0 0 \"\" \"\" OB\n" + obj + "OB\nTR\n" + // line 8
		"TR\n99999 0 0 0 0 \"\" \"\" OB\n" + obj + "OB\nTR\n" + // line 12
		"CO\nRS\nRE\n100\n" +
		"AC\nError - Bogus not found in ACTION.IDS\nAC\n" + // line 20
		"AC\n3OB\n" + obj + "OB\nOB\n99 0 0 0 0 0 0 0 0 0 0 0 \"\"OB\nOB\n" + obj + "OB\n0 0 0 0 0\"\" \"\" AC\n" + // line 23
		"RE\nRS\nCR\nSC\n"

	d := New(idstest.Resolver(), p, Options{})
	r := d.Decompile(code, true)

	if msg, ok := r.Diags.WarningAt(8); !ok || msg != "Unresolved flags 4096 in STATE.IDS" {
		t.Errorf("WarningAt(8) = %q, %v", msg, ok)
	}
	if msg, ok := r.Diags.ErrorAt(12); !ok || msg != "99999 not found in TRIGGER.IDS" {
		t.Errorf("ErrorAt(12) = %q, %v", msg, ok)
	}
	if msg, ok := r.Diags.ErrorAt(21); !ok || msg != "Bogus not found in ACTION.IDS" {
		t.Errorf("ErrorAt(21) = %q, %v; all %v", msg, ok, r.Diags.All())
	}
	if msg, ok := r.Diags.WarningAt(23); !ok || msg != "99 not found in EA.IDS" {
		t.Errorf("WarningAt(23) = %q, %v", msg, ok)
	}

	got := statements(r.Source)
	want := []string{
		"StateCheck([ANYONE],STATE_NORMAL)",
		"StateCheck([ANYONE],4096)",
		"// Error - 99999 not found in TRIGGER.IDS",
		"// Error - Bogus not found in ACTION.IDS",
		"Attack([99])",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("statements =\n%q\nwant\n%q", got, want)
	}

	quiet := d.Decompile(code, false)
	if n := len(quiet.Diags.All()); n != 0 {
		t.Errorf("diagnostics recorded without collect: %d", n)
	}
	if quiet.Source != r.Source {
		t.Error("collect must not change the output")
	}
}

func TestDecompile_FatalStub(t *testing.T) {
	p := profile(t, "bg2")
	r := New(idstest.Resolver(), p, Options{}).Decompile("SC\nError - Missing IF\nSC\n", true)
	if r.Source != "" {
		t.Errorf("Source = %q", r.Source)
	}
	if msg, ok := r.Diags.ErrorAt(2); !ok || msg != "Missing IF" {
		t.Errorf("ErrorAt(2) = %q, %v", msg, ok)
	}
}

func TestDecompile_Truncated(t *testing.T) {
	p := profile(t, "bg2")
	code := compile(t, p, "IF\nTrue()\nTHEN\nRESPONSE #100\nNoAction()\nEND\n")
	code = code[:strings.Index(code, "RS\n")]

	r := New(idstest.Resolver(), p, Options{}).Decompile(code, true)
	if !r.Diags.HasErrors() {
		t.Error("expected errors for truncated input")
	}
	if !strings.HasPrefix(r.Source, "IF\n  True()\nTHEN\n") {
		t.Errorf("Source = %q", r.Source)
	}
}

func TestUseOverflow(t *testing.T) {
	base := &ids.Entry{Name: "PlaySound", Params: []ids.Param{{Kind: ids.String, Name: "Sound"}}}
	tests := []struct {
		name string
		used Slots
		want bool
	}{
		{"nothing used", Slots{}, false},
		{"declared string", Slots{Strings: 1}, false},
		{"extra integer", Slots{Strings: 1, Ints: 1}, true},
		{"extra string", Slots{Strings: 2}, true},
		{"extra object", Slots{Objects: 1}, true},
		{"extra point", Slots{Points: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UseOverflow(base, tt.used); got != tt.want {
				t.Errorf("UseOverflow(%+v) = %v, want %v", tt.used, got, tt.want)
			}
		})
	}
}

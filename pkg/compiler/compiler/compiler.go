// Package compiler translates source script (BAF) into compiled code (BCS).
//
// Compilation is a single pass over logical lines. Every statement is
// compiled independently: a statement that fails is replaced with an
// error placeholder record and compilation continues, so the compiled
// stream keeps one record per source statement. Only a block that does not
// start with IF aborts the whole translation.
package compiler

import (
	"strconv"
	"strings"

	"github.com/zurustar/iescript/pkg/compiler/diag"
	"github.com/zurustar/iescript/pkg/compiler/lexer"
	"github.com/zurustar/iescript/pkg/game"
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/opcode"
)

// Options tunes a Compiler.
type Options struct {
	// SkipResourceChecks disables the "Resource not found" warning, for
	// callers that have no resource index.
	SkipResourceChecks bool
}

// Result is the outcome of one compilation.
type Result struct {
	Code   string
	Blocks []opcode.Block
	Diags  *diag.Set
	// Fatal is set when the input was rejected as a whole.
	Fatal bool
}

// Compiler holds the symbol service and game profile shared by all calls.
// It keeps no per-call state and is safe for concurrent use.
type Compiler struct {
	res  ids.Resolver
	p    *game.Profile
	opts Options
}

// New creates a Compiler.
func New(res ids.Resolver, p *game.Profile, opts Options) *Compiler {
	return &Compiler{res: res, p: p, opts: opts}
}

// compilation is the state of one Compile call.
type compilation struct {
	*Compiler
	res   ids.Resolver
	lines *lexer.Reader
	diags *diag.Set
}

// Compile translates source text into compiled code.
func (c *Compiler) Compile(source string) *Result {
	res := c.res
	if p, ok := res.(ids.Pinner); ok {
		res = p.Pin()
	}
	cc := &compilation{
		Compiler: c,
		res:      res,
		lines:    lexer.New(source),
		diags:    &diag.Set{},
	}
	return cc.run()
}

func (cc *compilation) run() *Result {
	var blocks []opcode.Block
	for {
		line, ok := cc.lines.Next()
		if !ok {
			break
		}
		if !strings.EqualFold(line, "IF") {
			cc.diags.Errorf(cc.lines.Line(), "Missing IF")
			return &Result{
				Code:  fatalStub("Missing IF"),
				Diags: cc.diags,
				Fatal: true,
			}
		}
		blocks = append(blocks, cc.block())
	}
	return &Result{
		Code:   opcode.Encode(cc.p, blocks),
		Blocks: blocks,
		Diags:  cc.diags,
	}
}

func fatalStub(msg string) string {
	return string(opcode.MarkScript) + "\n" + opcode.ErrorPrefix + msg + "\n" + string(opcode.MarkScript) + "\n"
}

// block compiles one IF ... THEN ... END block; the IF line is consumed.
func (cc *compilation) block() opcode.Block {
	var blk opcode.Block
	ifLine := cc.lines.Line()
	if !cc.condition(&blk, ifLine) {
		return blk
	}
	cc.responses(&blk)
	return blk
}

// condition reads triggers up to THEN. It returns false when the block
// ended without a THEN.
func (cc *compilation) condition(blk *opcode.Block, lastLine int) bool {
	orCount := int64(0)
	for {
		line, ok := cc.lines.Peek()
		if !ok || strings.EqualFold(line, "END") || strings.EqualFold(line, "IF") || isResponse(line) {
			// Both land on lastLine; "Missing THEN" overwrites an open OR
			// group's shortfall, since one line keeps one error.
			cc.checkOr(orCount, lastLine)
			cc.diags.Errorf(lastLine, "Missing THEN")
			if ok && strings.EqualFold(line, "END") {
				cc.lines.Next()
			}
			if ok && isResponse(line) {
				cc.responses(blk)
			}
			return false
		}
		cc.lines.Next()
		lineNo := cc.lines.Line()
		if strings.EqualFold(line, "THEN") {
			// A shortfall replaces any error already on the last trigger.
			cc.checkOr(orCount, lastLine)
			return true
		}
		lastLine = lineNo

		t, err := cc.trigger(line, lineNo)
		switch {
		case err != nil:
			cc.diags.Errorf(lineNo, "%s", err.Error())
			t = opcode.Trigger{Error: err.Error(), Line: lineNo}
			if orCount > 0 {
				orCount--
			}
		case t.ID == orID(cc.res):
			if orCount > 0 {
				cc.diags.Errorf(lineNo, "Nested OR")
				t = opcode.Trigger{Error: "Nested OR", Line: lineNo}
				orCount--
				break
			}
			if t.Int1 <= 0 {
				cc.diags.Errorf(lineNo, "Invalid OR count %d", t.Int1)
				t = opcode.Trigger{Error: "Invalid OR count " + strconv.FormatInt(t.Int1, 10), Line: lineNo}
				break
			}
			orCount = t.Int1
		case orCount > 0:
			orCount--
		}
		blk.Triggers = append(blk.Triggers, t)
	}
}

// checkOr reports an OR group left open at the end of the condition.
func (cc *compilation) checkOr(orCount int64, line int) {
	if orCount > 0 {
		cc.diags.Errorf(line, "Missing %d trigger(s)", orCount)
	}
}

// orID returns the id of the OR trigger, or -1 when the table lacks it.
func orID(res ids.Resolver) int64 {
	if e, ok := res.Lookup(ids.TriggerTable, "OR"); ok {
		return e.ID
	}
	return -1
}

func isResponse(line string) bool {
	return len(line) >= 8 && strings.EqualFold(line[:8], "RESPONSE")
}

// responses reads RESPONSE #n sections up to END.
func (cc *compilation) responses(blk *opcode.Block) {
	var cur *opcode.Response
	for {
		line, ok := cc.lines.Peek()
		if !ok || strings.EqualFold(line, "IF") {
			cc.diags.Errorf(cc.lines.Line(), "Missing END")
			return
		}
		cc.lines.Next()
		lineNo := cc.lines.Line()

		switch {
		case strings.EqualFold(line, "END"):
			return
		case isResponse(line):
			w, err := parseWeight(line)
			if err != nil {
				cc.diags.Errorf(lineNo, "%s", err.Error())
			}
			blk.Responses = append(blk.Responses, opcode.Response{Weight: w})
			cur = &blk.Responses[len(blk.Responses)-1]
		case cur == nil:
			cc.diags.Errorf(lineNo, "Missing RESPONSE")
		default:
			a, err := cc.action(line, lineNo)
			if err != nil {
				cc.diags.Errorf(lineNo, "%s", err.Error())
				a = opcode.Action{Error: err.Error(), Line: lineNo}
			}
			cur.Actions = append(cur.Actions, a)
		}
	}
}

func parseWeight(line string) (int64, error) {
	hash := strings.IndexByte(line, '#')
	if hash < 0 {
		return 0, failf("Missing # in RESPONSE")
	}
	w, err := strconv.ParseInt(strings.TrimSpace(line[hash+1:]), 10, 64)
	if err != nil {
		return 0, failf("Invalid response weight: %s", strings.TrimSpace(line[hash+1:]))
	}
	return w, nil
}

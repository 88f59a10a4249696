// Package compiler turns the edit ledger, prompt pins and reference image
// flag into the phased instruction document handed to the coding agent.
//
// Output is a pure function of the Input and the injected clock: the same
// edits and pins in the same order always render byte-identical text.
package compiler

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/entrhq/canvas/pkg/types"
)

// Bucket groups edits into the phases of the document.
type Bucket int

const (
	BucketStyle Bucket = iota
	BucketContent
	BucketDefect
)

var bucketTitles = [...]string{
	BucketStyle:   "Style",
	BucketContent: "Content",
	BucketDefect:  "Defect",
}

func (b Bucket) String() string {
	if b < 0 || int(b) >= len(bucketTitles) {
		return "Unknown"
	}
	return bucketTitles[b]
}

// BucketOf returns the phase an edit type belongs to.
func BucketOf(t types.EditType) Bucket {
	switch t {
	case types.EditTypeRetext, types.EditTypeAddHere:
		return BucketContent
	case types.EditTypeMarkError, types.EditTypeAnnotate:
		return BucketDefect
	default:
		return BucketStyle
	}
}

// Input is everything a document is compiled from.
type Input struct {
	Edits          []types.Edit
	Pins           []types.Pin
	HasReference   bool
	AgentAvailable bool
}

// Compiler renders instruction documents.
type Compiler struct {
	now func() time.Time
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithClock sets the source of the Generated timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) { c.now = now }
}

// New returns a compiler using the wall clock unless overridden.
func New(opts ...Option) *Compiler {
	c := &Compiler{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// step is one numbered entry in the document.
type step struct {
	tag        string
	target     string
	at         string
	change     string
	acceptance string
}

// Compile renders the document for in.
func (c *Compiler) Compile(in Input) string {
	var buckets [len(bucketTitles)][]step
	for _, e := range in.Edits {
		b := BucketOf(e.Type)
		buckets[b] = append(buckets[b], editStep(e))
	}
	for _, p := range in.Pins {
		buckets[BucketContent] = append(buckets[BucketContent], pinStep(p))
	}

	total := 0
	for _, steps := range buckets {
		total += len(steps)
	}

	var sb strings.Builder
	sb.WriteString(Title)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n", c.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Operations: %d total (style: %d, content: %d, defect: %d)\n",
		total, len(buckets[BucketStyle]), len(buckets[BucketContent]), len(buckets[BucketDefect]))
	if in.HasReference {
		sb.WriteString("Reference image: " + referenceNote + "\n")
	} else {
		sb.WriteString("Reference image: none\n")
	}
	if in.AgentAvailable {
		sb.WriteString("Agent: available\n")
	} else {
		sb.WriteString("Agent: unavailable\n")
	}

	n, phase := 0, 0
	for b, steps := range buckets {
		if len(steps) == 0 {
			continue
		}
		phase++
		fmt.Fprintf(&sb, "\n## Phase %d: %s\n", phase, Bucket(b))
		for _, s := range steps {
			n++
			fmt.Fprintf(&sb, "\n[%d] %s %s @ %s\n", n, s.tag, s.target, s.at)
			fmt.Fprintf(&sb, "    Change: %s\n", s.change)
			fmt.Fprintf(&sb, "    Acceptance: %s\n", s.acceptance)
		}
	}

	sb.WriteString("\n")
	if total == 0 {
		sb.WriteString(emptyPolicy)
	} else {
		fmt.Fprintf(&sb, executionPolicy, total)
	}
	sb.WriteString("\n")
	return sb.String()
}

// Compile renders in with the wall clock.
func Compile(in Input) string {
	return New().Compile(in)
}

func editStep(e types.Edit) step {
	return step{
		tag:        strings.ToUpper(string(e.Type)),
		target:     target(e.Selector),
		at:         coords(e.Coords),
		change:     change(e),
		acceptance: criterion(e),
	}
}

func pinStep(p types.Pin) step {
	near := target(p.NearestSelector)
	return step{
		tag:        "PIN",
		target:     near,
		at:         fmt.Sprintf("(%s, %s)", num(p.PageX), num(p.PageY)),
		change:     oneLine(p.Prompt),
		acceptance: fmt.Sprintf("the change requested near %s at (%s, %s) is visible", near, num(p.PageX), num(p.PageY)),
	}
}

func target(selector string) string {
	if selector == "" {
		return types.ViewportSelector
	}
	return selector
}

func coords(c types.Coords) string {
	return fmt.Sprintf("(%s, %s, %sx%s)", num(c.X), num(c.Y), num(c.W), num(c.H))
}

// num rounds to two decimals and drops trailing zeros.
func num(f float64) string {
	r := math.Round(f*100) / 100
	if r == 0 {
		r = 0 // folds -0
	}
	return types.FormatNumber(r)
}

// oneLine collapses whitespace so free text cannot break the layout.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "(empty)"
	}
	return s
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

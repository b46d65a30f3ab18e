package converter

import (
	"fmt"
	"regexp"
	"strings"
)

// REDCap embeds two reference shapes in its logic cells: [field] for
// scalar values and [field(option)] for checkbox membership.
var (
	scalarCompareRe = regexp.MustCompile(`\[(\w+)\]\s*([!<>=]{0,2})\s*['"]?(\w*)['"]?`)
	arrayCompareRe  = regexp.MustCompile(`\[(\w+)\((\w+)\)\]\s*([!=]{0,2})\s*['"]?(\w*)['"]?`)
	scalarRefRe     = regexp.MustCompile(`\[(\w+)\]`)
	arrayRefRe      = regexp.MustCompile(`\[(\w+)\((\w+)\)\]`)
	anyRefRe        = regexp.MustCompile(`\[(\w+)(?:\(\w+\))?\]`)
	defaultRe       = regexp.MustCompile(`(?i)@default\s*=\s*['"]?([^'"]*)['"]?`)
	readOnlyRe      = regexp.MustCompile(`(?i)@hidden`)
)

// Relevant rewrites a REDCap branching-logic expression into XLSForm
// syntax. Scalar comparisons become ${field} comparisons with the quotes
// stripped from the literal; checkbox membership tests become
// selected('field','option'), wrapped in not(...) when the comparison
// denotes "not selected". REDCap's <> spelling becomes !=. The or/and
// keywords pass through with their case untouched, matching the observed
// behavior of existing conversions.
func Relevant(expr string) string {
	out := scalarCompareRe.ReplaceAllString(expr, "$${$1} $2 $3")
	out = arrayCompareRe.ReplaceAllStringFunc(out, rewriteMembership)
	out = strings.ReplaceAll(out, "<>", "!=")
	return out
}

func rewriteMembership(match string) string {
	g := arrayCompareRe.FindStringSubmatch(match)
	field, option, op, value := g[1], g[2], g[3], g[4]
	sel := fmt.Sprintf("selected('%s','%s')", field, option)
	if notSelected(op, value) {
		return "not(" + sel + ")"
	}
	return sel
}

// notSelected inspects only the final character of the literal; REDCap
// exports sometimes carry longer values and existing forms depend on the
// last digit deciding the sense.
func notSelected(op, value string) bool {
	if value == "" {
		return false
	}
	last := value[len(value)-1]
	return (op == "=" && last == '0') || (op == "!=" && last == '1')
}

// Calculation rewrites a REDCap calc expression into XLSForm syntax.
// Only fields resolved to the calculate type carry one; anything else
// yields an empty string. Operators are left alone, REDCap calc
// expressions already use the XLSForm operator set.
func Calculation(xlsType, expr string) string {
	if xlsType != typeCalculate {
		return ""
	}
	out := scalarRefRe.ReplaceAllString(expr, "$${$1}")
	out = arrayRefRe.ReplaceAllString(out, "selected($${$1},'$2')")
	return out
}

// DefaultValue extracts the value of a @default annotation, quoted or
// not. Missing annotation yields an empty string.
func DefaultValue(annotation string) string {
	m := defaultRe.FindStringSubmatch(annotation)
	if m == nil {
		return ""
	}
	return m[1]
}

// ReadOnly reports whether the annotation marks the field @hidden, which
// maps to a read-only question.
func ReadOnly(annotation string) string {
	if readOnlyRe.MatchString(annotation) {
		return "yes"
	}
	return ""
}

// ExtractReferences returns the name of every field an expression
// mentions, in either reference shape. Used to detect logic that reaches
// across form boundaries.
func ExtractReferences(expr string) []string {
	var refs []string
	for _, m := range anyRefRe.FindAllStringSubmatch(expr, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

package explain

import "strings"

// DefaultExplanation is returned when no rule matches a line.
const DefaultExplanation = "MATLAB command for control system analysis."

// RuleKind tags the variant of a Rule.
type RuleKind uint8

const (
	DictionaryRule RuleKind = iota + 1
	KeywordRule
	DefaultRule
)

func (k RuleKind) String() string {
	switch k {
	case DictionaryRule:
		return "dictionary"
	case KeywordRule:
		return "keyword"
	case DefaultRule:
		return "default"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k RuleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Rule is one step of the ordered matching list.
//
// A DictionaryRule matches when the normalized line contains Key or Key
// contains the normalized line. A KeywordRule matches when Match reports true
// for the lower-cased line. A DefaultRule always matches.
type Rule struct {
	Kind        RuleKind
	Key         string
	Match       func(lower string) bool
	Explanation string
}

func (r Rule) matches(line string) bool {
	switch r.Kind {
	case DictionaryRule:
		return strings.Contains(line, r.Key) || strings.Contains(r.Key, line)
	case KeywordRule:
		return r.Match != nil && r.Match(strings.ToLower(line))
	case DefaultRule:
		return true
	default:
		return false
	}
}

func contains(fragment string) func(string) bool {
	return func(lower string) bool { return strings.Contains(lower, fragment) }
}

// keywordRules is the generic fallback, evaluated in order.
var keywordRules = []Rule{
	{Kind: KeywordRule, Match: contains("tf("),
		Explanation: "Creates a transfer function from numerator and denominator coefficients."},
	{Kind: KeywordRule, Match: contains("feedback("),
		Explanation: "Creates closed-loop system. feedback(G,1) gives unity feedback: T = G/(1+G)."},
	{Kind: KeywordRule, Match: contains("conv("),
		Explanation: "Multiplies two polynomials. Used to expand expressions like (s+a)(s+b)."},
	{Kind: KeywordRule, Match: contains("step("),
		Explanation: "Plots step response - system output when input changes from 0 to 1."},
	{Kind: KeywordRule, Match: contains("impulse("),
		Explanation: "Plots impulse response - natural behavior of the system."},
	{Kind: KeywordRule, Match: contains("bode("),
		Explanation: "Plots Bode diagram - magnitude and phase vs frequency."},
	{Kind: KeywordRule, Match: contains("margin("),
		Explanation: "Calculates and displays gain margin and phase margin."},
	{Kind: KeywordRule, Match: contains("rlocus("),
		Explanation: "Plots root locus - shows how poles move as gain K varies."},
	{Kind: KeywordRule, Match: contains("nyquist("),
		Explanation: "Plots Nyquist diagram for stability analysis."},
	{Kind: KeywordRule, Match: contains("pzmap("),
		Explanation: "Plots poles (×) and zeros (○) on complex plane."},
	{Kind: KeywordRule, Match: contains("figure"),
		Explanation: "Creates a new figure window for plotting."},
	{Kind: KeywordRule, Match: contains("grid on"),
		Explanation: "Adds grid lines to the current plot."},
	{Kind: KeywordRule, Match: contains("title("),
		Explanation: "Sets the title of the current plot."},
	{Kind: KeywordRule, Match: contains("hold on"),
		Explanation: "Keeps current plot so next plot overlays on same axes."},
	{Kind: KeywordRule, Match: func(lower string) bool {
		return strings.Contains(lower, "=") && strings.Contains(lower, "[")
	}, Explanation: "Defines polynomial coefficients in descending powers of s."},
	{Kind: KeywordRule, Match: contains("="),
		Explanation: "Assigns a value to a variable."},
}

var defaultRule = Rule{Kind: DefaultRule, Explanation: DefaultExplanation}

// Rules returns the full ordered rule list for dict: its entries in authored
// order, then the keyword fallbacks, then the default.
func Rules(dict Dictionary) []Rule {
	rules := make([]Rule, 0, len(dict)+len(keywordRules)+1)
	for _, e := range dict {
		rules = append(rules, Rule{
			Kind:        DictionaryRule,
			Key:         normalize(e.Key),
			Explanation: e.Value,
		})
	}
	rules = append(rules, keywordRules...)
	return append(rules, defaultRule)
}

// Dispatch returns the first rule in rules that matches the normalized line.
func Dispatch(rules []Rule, line string) Rule {
	for _, r := range rules {
		if r.matches(line) {
			return r
		}
	}
	return defaultRule
}

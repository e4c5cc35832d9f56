// Package capture sits between the tree walker and the event log: it drops
// records matched by exclusion rules and redacts sensitive text.
// Package capture 位于 walker 与事件日志之间：丢弃被排除规则匹配的记录并脱敏敏感文本。
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/livp123/axtext/internal/metrics"
	apperrors "github.com/livp123/axtext/pkg/errors"
	"github.com/livp123/axtext/pkg/record"
)

// Rule excludes records from capture. When Expression is empty one is
// generated from Apps (any of) and Contains (all of, case-insensitive).
// Rule 将记录排除在捕获之外；Expression 为空时根据 Apps 和 Contains 生成表达式。
type Rule struct {
	ID         string   `yaml:"id" json:"id"`
	Expression string   `yaml:"expression,omitempty" json:"expression,omitempty"`
	Apps       []string `yaml:"apps,omitempty" json:"apps,omitempty"`
	Contains   []string `yaml:"contains,omitempty" json:"contains,omitempty"`
}

// Env is what a rule expression sees.
// Env 是规则表达式可见的环境。
type Env struct {
	App   string
	Name  string
	Text  string
	Class string
	ID    string
	Kind  string
}

// Has reports whether Text contains needle, ignoring case.
func (e Env) Has(needle string) bool {
	return strings.Contains(strings.ToLower(e.Text), strings.ToLower(needle))
}

// Editable reports whether the originating node class looks like a text field.
func (e Env) Editable() bool {
	return strings.HasSuffix(e.Class, "EditText") || strings.HasPrefix(e.Class, "AXText")
}

func newEnv(r record.Record) Env {
	return Env{
		App:   r.SourceApp,
		Name:  r.DisplayName,
		Text:  r.Text,
		Class: r.NodeClass,
		ID:    r.NodeID,
		Kind:  r.Kind,
	}
}

type compiledRule struct {
	id      string
	source  string
	program *vm.Program
	// failed is set by the first evaluation error so it is reported once.
	failed *atomic.Bool
}

// Filter evaluates compiled rules. Rules can be swapped while records flow.
// Filter 评估已编译的规则，可在记录流动时替换规则。
type Filter struct {
	rules atomic.Pointer[[]compiledRule]
}

// NewFilter compiles rules into a Filter.
func NewFilter(rules []Rule) (*Filter, error) {
	f := &Filter{}
	f.rules.Store(&[]compiledRule{})
	if err := f.Update(rules); err != nil {
		return nil, err
	}
	return f, nil
}

// Update recompiles and atomically replaces the rule set. On error the
// previous rules stay in effect.
// Update 重新编译并原子替换规则集；出错时保留原有规则。
func (f *Filter) Update(rules []Rule) error {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		id := r.ID
		if id == "" {
			id = fmt.Sprintf("rule_%d", i)
		}
		src := r.Expression
		if src == "" {
			src = generateExpression(r)
		}
		program, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return apperrors.NewRuleError(id, err)
		}
		compiled = append(compiled, compiledRule{id: id, source: src, program: program, failed: &atomic.Bool{}})
	}
	f.rules.Store(&compiled)
	return nil
}

// Match returns the ID of the first rule excluding r. A rule that fails to
// evaluate does not match; every failure is counted, and the first one per
// rule is returned as err so the caller can report it.
// Match 返回第一个排除 r 的规则 ID；求值失败的规则视为不匹配，每条规则的首次失败通过 err 返回。
func (f *Filter) Match(r record.Record) (id string, matched bool, err error) {
	rules := *f.rules.Load()
	if len(rules) == 0 {
		return "", false, nil
	}
	env := newEnv(r)
	var errs []error
	for _, rule := range rules {
		out, runErr := expr.Run(rule.program, env)
		if runErr != nil {
			metrics.RuleErrors.WithLabelValues(rule.id).Inc()
			if rule.failed.CompareAndSwap(false, true) {
				errs = append(errs, apperrors.NewRuleError(rule.id, runErr))
			}
			continue
		}
		if ok, isBool := out.(bool); isBool && ok {
			return rule.id, true, errors.Join(errs...)
		}
	}
	return "", false, errors.Join(errs...)
}

// Len returns the number of active rules.
func (f *Filter) Len() int {
	return len(*f.rules.Load())
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func generateExpression(r Rule) string {
	var sections []string
	if len(r.Apps) > 0 {
		parts := make([]string, 0, len(r.Apps))
		for _, app := range r.Apps {
			parts = append(parts, "App == "+quote(app))
		}
		sections = append(sections, "("+strings.Join(parts, " || ")+")")
	}
	for _, needle := range r.Contains {
		sections = append(sections, "Has("+quote(needle)+")")
	}
	if len(sections) == 0 {
		return "false"
	}
	return strings.Join(sections, " && ")
}

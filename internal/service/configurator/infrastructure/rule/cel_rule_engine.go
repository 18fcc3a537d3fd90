// internal/service/configurator/infrastructure/rule/cel_rule_engine.go
package rule

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"velocraft/internal/service/configurator/domain"
)

// CELRuleEngine 是 port.RuleEngine 接口的一个具体实现。
// 它把优惠码上的资格表达式交给 cel-go 执行，表达式可以引用：
//
//	total       double  订单金额
//	item_count  int     购物车条目数
type CELRuleEngine struct {
	env      *cel.Env
	programs sync.Map // expression -> cel.Program
}

// NewCELRuleEngine 创建一个新的规则引擎适配器实例。
func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("total", cel.DoubleType),
		cel.Variable("item_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &CELRuleEngine{env: env}, nil
}

// Evaluate 实现了 port.RuleEngine 接口。空表达式视为满足。
func (e *CELRuleEngine) Evaluate(expression string, fact domain.PromoFact) (bool, error) {
	if expression == "" {
		return true, nil
	}
	prg, err := e.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"total":      fact.Total.InexactFloat64(),
		"item_count": int64(fact.ItemCount),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not produce a bool", expression)
	}
	return result, nil
}

// program 编译结果按表达式缓存，同一个优惠码只编译一次。
func (e *CELRuleEngine) program(expression string) (cel.Program, error) {
	if cached, ok := e.programs.Load(expression); ok {
		return cached.(cel.Program), nil
	}
	ast, iss := e.env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expression, ast.OutputType())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expression, err)
	}
	e.programs.Store(expression, prg)
	return prg, nil
}

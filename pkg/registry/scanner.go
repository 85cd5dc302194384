// pkg/registry/scanner.go
package registry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/effect"
	"github.com/joeydtaylor/steeze-effects/pkg/manifest"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Scanner turns manifest effect declarations into invokers.
type Scanner struct {
	Hosts    *Hosts
	Actions  *actions.Registry
	Log      *zap.Logger
	FailFast bool
}

// Bind describes, validates and builds each declaration in order.
//
// With FailFast the first failure aborts and no invokers are returned.
// Otherwise failing declarations are logged and skipped; the invokers that
// did bind are returned together with the combined error.
func (s *Scanner) Bind(decls []manifest.Effect) ([]*effect.Invoker, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	var (
		out  = make([]*effect.Invoker, 0, len(decls))
		errs error
	)
	for i, d := range decls {
		inv, err := s.bindOne(d)
		if err != nil {
			err = fmt.Errorf("effect %d (%s): %w", i, label(d), err)
			if s.FailFast {
				return nil, err
			}
			log.Warn("effect skipped",
				zap.Int("index", i),
				zap.String("host", d.Host),
				zap.String("method", d.Method),
				zap.String("func", d.Func),
				zap.String("rule", rule(err)),
				zap.Error(err),
			)
			errs = multierr.Append(errs, err)
			continue
		}
		log.Info("effect bound",
			zap.String("effect", inv.Binding().Name()),
			zap.Stringer("reacts_to", inv.Binding().ReactsTo),
			zap.Stringer("shape", inv.Binding().Shape),
		)
		out = append(out, inv)
	}
	return out, errs
}

func (s *Scanner) bindOne(d manifest.Effect) (*effect.Invoker, error) {
	var reactsTo reflect.Type
	if d.ReactsTo != "" {
		reg := s.Actions
		if reg == nil {
			reg = actions.Default
		}
		t, ok := reg.TypeOf(d.ReactsTo)
		if !ok {
			return nil, fmt.Errorf("action %q not registered", d.ReactsTo)
		}
		reactsTo = t
	}

	hosts := s.Hosts
	if hosts == nil {
		hosts = Default
	}
	if d.Static() {
		fn, ok := hosts.Func(d.Func)
		if !ok {
			return nil, fmt.Errorf("func %q not registered", d.Func)
		}
		return DeclareFunc(d.Func, fn, reactsTo)
	}
	h, ok := hosts.Host(d.Host)
	if !ok {
		return nil, fmt.Errorf("host %q not registered", d.Host)
	}
	return Declare(h, d.Method, reactsTo)
}

// Declare binds method on host without a manifest. reactsTo may be nil.
func Declare(host any, method string, reactsTo reflect.Type) (*effect.Invoker, error) {
	if host == nil {
		return nil, errors.New("registry: nil host")
	}
	m, err := effect.DescribeMethod(reflect.TypeOf(host), method)
	if err != nil {
		return nil, err
	}
	b, err := effect.Validate(nil, m, reactsTo)
	if err != nil {
		return nil, err
	}
	return effect.Build(b, effect.Instance(host))
}

// DeclareFunc binds a free function without a manifest. reactsTo may be nil.
func DeclareFunc(name string, fn any, reactsTo reflect.Type) (*effect.Invoker, error) {
	m, err := effect.DescribeFunc(name, fn)
	if err != nil {
		return nil, err
	}
	b, err := effect.Validate(nil, m, reactsTo)
	if err != nil {
		return nil, err
	}
	return effect.Build(b, effect.Static())
}

// MustDeclare is Declare that panics.
func MustDeclare(host any, method string, reactsTo reflect.Type) *effect.Invoker {
	inv, err := Declare(host, method, reactsTo)
	if err != nil {
		panic(err)
	}
	return inv
}

func label(d manifest.Effect) string {
	if d.Static() {
		return d.Func
	}
	return d.Host + "." + d.Method
}

func rule(err error) string {
	var ve *effect.ValidationError
	if errors.As(err, &ve) {
		return ve.Kind.Error()
	}
	return ""
}

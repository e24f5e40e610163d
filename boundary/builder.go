package boundary

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/enginecore/errors"
)

// FuncDef describes one exported host function.
type FuncDef struct {
	Handler     api.GoModuleFunc
	Name        string
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
}

// HostModuleBuilder collects function definitions and instantiates them as
// a single wazero host module.
type HostModuleBuilder struct {
	funcs      map[string]*FuncDef
	moduleName string
	mu         sync.Mutex
}

// NewHostModule starts building a host module with the given name.
func NewHostModule(name string) *HostModuleBuilder {
	return &HostModuleBuilder{
		funcs:      make(map[string]*FuncDef),
		moduleName: name,
	}
}

// Func adds a function. Redefining a name replaces the earlier definition.
func (b *HostModuleBuilder) Func(name string, fn api.GoModuleFunc, params, results []api.ValueType) *HostModuleBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.funcs[name] = &FuncDef{
		Name:        name,
		Handler:     guard(b.moduleName, name, len(results), fn),
		ParamTypes:  params,
		ResultTypes: results,
	}
	return b
}

// Funcs returns the definitions sorted by name.
func (b *HostModuleBuilder) Funcs() []*FuncDef {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*FuncDef, 0, len(b.funcs))
	for _, f := range b.funcs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Build instantiates the host module into the wazero runtime.
func (b *HostModuleBuilder) Build(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	if rt.Module(b.moduleName) != nil {
		return nil, errors.Registration(b.moduleName, "*", fmt.Errorf("module %q already instantiated", b.moduleName))
	}

	builder := rt.NewHostModuleBuilder(b.moduleName)
	for _, f := range b.Funcs() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.ParamTypes, f.ResultTypes).
			WithName(f.Name).
			Export(f.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Registration(b.moduleName, "*", err)
	}
	return mod, nil
}

// guard recovers a panicking handler, zeroes its results, and logs.
func guard(module, name string, results int, fn api.GoModuleFunc) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		defer func() {
			if r := recover(); r != nil {
				Logger().Error("host call panicked",
					zap.String("module", module),
					zap.String("name", name),
					zap.Any("panic", r))
				for i := 0; i < results && i < len(stack); i++ {
					stack[i] = 0
				}
			}
		}()
		fn(ctx, mod, stack)
	}
}

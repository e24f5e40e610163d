package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/enginecore/boundary"
	"github.com/wippyai/enginecore/engine"
	"github.com/wippyai/enginecore/errors"
)

var entryPoints = []string{"_start", "run", "main"}

// runGuest drives the engine from a core wasm module that imports the
// enginecore host module.
func runGuest(ctx context.Context, e *engine.Engine, path, funcName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Load("read guest module", err)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return errors.Registration(wasi_snapshot_preview1.ModuleName, "*", err)
	}
	if _, err := boundary.Instantiate(ctx, rt, e); err != nil {
		return err
	}

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return errors.Load("compile guest module", err)
	}
	defer compiled.Close(ctx)

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName("guest").
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithStartFunctions())
	if err != nil {
		return errors.Load("instantiate guest module", err)
	}
	defer mod.Close(ctx)

	if funcName == "" {
		for _, name := range entryPoints {
			if mod.ExportedFunction(name) != nil {
				funcName = name
				break
			}
		}
		if funcName == "" {
			return errors.Load(fmt.Sprintf("no entry point found (tried %v); use --func", entryPoints), nil)
		}
	}

	fn := mod.ExportedFunction(funcName)
	if fn == nil {
		return errors.Load(fmt.Sprintf("guest has no export %q", funcName), nil)
	}

	if err := e.Start(); err != nil {
		return err
	}
	engine.Logger().Info("calling guest", zap.String("module", path), zap.String("func", funcName))
	if _, err := fn.Call(ctx); err != nil {
		var exit *sys.ExitError
		if errors.As(err, &exit) && exit.ExitCode() == 0 {
			return nil
		}
		return errors.Wrap(errors.PhaseBoundary, errors.KindUnsupported, err, "guest call "+funcName)
	}
	return nil
}

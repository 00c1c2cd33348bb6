package loader

import (
	"context"

	"github.com/risor-io/risor/object"

	"github.com/mstanton/prelude/internal/gen"
)

// globals builds the host functions an artifact may call while loading.
func (l *Loader) globals() map[string]any {
	return map[string]any{
		"autoload":         l.makeAutoloadFn(),
		"bundle_of":        l.makeBundleOfFn(),
		"alias":            l.makeAliasFn(),
		"noop":             makeNoopFn(),
		"add_load_path":    l.makeAddLoadPathFn(),
		"register_handler": l.makeRegisterHandlerFn(),
		"restore_state":    l.makeRestoreStateFn(),
	}
}

// autoload(name, path) registers a deferred binding: the definition at path
// is loaded on first invocation of name. Artifacts carry home-abbreviated
// paths; the binding stores the expanded form.
func (l *Loader) makeAutoloadFn() *object.Builtin {
	return object.NewBuiltin("autoload", func(ctx context.Context, args ...object.Object) object.Object {
		name, path, errObj := twoStrings("autoload", args)
		if errObj != nil {
			return errObj
		}
		l.bindings[name] = gen.ExpandPath(path)
		return object.Nil
	})
}

// bundle_of(name, bundle) records bundle attribution for a binding.
func (l *Loader) makeBundleOfFn() *object.Builtin {
	return object.NewBuiltin("bundle_of", func(ctx context.Context, args ...object.Object) object.Object {
		name, bundle, errObj := twoStrings("bundle_of", args)
		if errObj != nil {
			return errObj
		}
		l.owners[name] = bundle
		return object.Nil
	})
}

// alias(name, target) registers an alias. The "noop" target is the
// universal inert alias used for disabled bundles.
func (l *Loader) makeAliasFn() *object.Builtin {
	return object.NewBuiltin("alias", func(ctx context.Context, args ...object.Object) object.Object {
		name, target, errObj := twoStrings("alias", args)
		if errObj != nil {
			return errObj
		}
		l.aliases[name] = target
		return object.Nil
	})
}

// noop accepts anything and does nothing.
func makeNoopFn() *object.Builtin {
	return object.NewBuiltin("noop", func(ctx context.Context, args ...object.Object) object.Object {
		return object.Nil
	})
}

func (l *Loader) makeAddLoadPathFn() *object.Builtin {
	return object.NewBuiltin("add_load_path", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("add_load_path", 1, len(args))
		}
		path, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("add_load_path: path must be a string, got %s", args[0].Type())
		}
		if l.state == nil {
			l.state = &State{Handlers: make(map[string]string)}
		}
		l.state.LoadPath = append(l.state.LoadPath, path.Value())
		return object.Nil
	})
}

func (l *Loader) makeRegisterHandlerFn() *object.Builtin {
	return object.NewBuiltin("register_handler", func(ctx context.Context, args ...object.Object) object.Object {
		ext, kind, errObj := twoStrings("register_handler", args)
		if errObj != nil {
			return errObj
		}
		if l.state == nil {
			l.state = &State{Handlers: make(map[string]string)}
		}
		l.state.Handlers[ext] = kind
		return object.Nil
	})
}

// restore_state(map) consumes the snapshot assignment emitted into the
// bundle artifact, restoring load path, handler table, and disabled list
// wholesale.
func (l *Loader) makeRestoreStateFn() *object.Builtin {
	return object.NewBuiltin("restore_state", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("restore_state", 1, len(args))
		}
		m, ok := args[0].(*object.Map)
		if !ok {
			return object.Errorf("restore_state: expected a map, got %s", args[0].Type())
		}
		fields := m.Value()
		st := &State{Handlers: make(map[string]string)}
		if list, ok := fields["load_path"].(*object.List); ok {
			for _, it := range list.Value() {
				if s, ok := it.(*object.String); ok {
					st.LoadPath = append(st.LoadPath, s.Value())
				}
			}
		}
		if list, ok := fields["disabled"].(*object.List); ok {
			for _, it := range list.Value() {
				if s, ok := it.(*object.String); ok {
					st.Disabled = append(st.Disabled, s.Value())
				}
			}
		}
		if handlers, ok := fields["handlers"].(*object.Map); ok {
			for ext, val := range handlers.Value() {
				if s, ok := val.(*object.String); ok {
					st.Handlers[ext] = s.Value()
				}
			}
		}
		l.state = st
		return object.Nil
	})
}

func twoStrings(fn string, args []object.Object) (string, string, object.Object) {
	if len(args) != 2 {
		return "", "", object.NewArgsError(fn, 2, len(args))
	}
	first, ok := args[0].(*object.String)
	if !ok {
		return "", "", object.Errorf("%s: first argument must be a string, got %s", fn, args[0].Type())
	}
	second, ok := args[1].(*object.String)
	if !ok {
		return "", "", object.Errorf("%s: second argument must be a string, got %s", fn, args[1].Type())
	}
	return first.Value(), second.Value(), nil
}

// Package component connects stores to the parts of an application that
// render them.
//
// There are three building blocks, all driven through context.Context:
//
//   - Container owns a scope. Mounting it resolves (or creates) the store
//     instance for its scope and returns a child context that carries the
//     binding. Everything below it that uses the same store sees that
//     instance and actions bound with the container's props.
//   - Subscriber calls a render function with selected state and actions,
//     and calls it again whenever the selected value changes.
//   - Hooks return the selected state and actions for the store visible
//     from a context. When the context carries a store.Listener, the hook
//     also marks that listener dirty on every change of the selected value.
//
// Without an enclosing container, subscribers and hooks use the global
// instance of the registry found on the context (store.DefaultRegistry by
// default).
//
// Usage:
//
//	var CounterContainer = component.NewContainer[Counter, CounterActions, Props](
//	    CounterStore, component.ContainerOptions[Counter, CounterActions]{
//	        OnInit: func() store.Action[Counter, CounterActions] { return loadCounter },
//	    })
//
//	ctx, mounted := CounterContainer.Mount(ctx, component.ContainerProps[Props]{Scope: "sidebar"})
//	defer mounted.Unmount()
//
//	useCount := component.NewSelectorHook(CounterStore,
//	    func(s Counter, _ struct{}) int { return s.Count })
//	count, actions := useCount(ctx, struct{}{})
package component

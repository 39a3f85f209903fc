// Package reactive provides observable value cells for form state.
//
// A Signal holds a value and notifies subscribers after it changes. Signals
// created in the same Scope can be updated together with Scope.Batch, in
// which case every subscriber runs once after the outermost batch returns.
// Signals made with NewSignal share a default scope batched by Batch.
//
//	scope := reactive.NewScope()
//	name := reactive.Scoped(scope, "")
//	errs := reactive.Scoped(scope, map[string][]string{})
//
//	stop := name.Subscribe(func() { fmt.Println("changed") })
//	defer stop()
//
//	scope.Batch(func() {
//	    name.Set("ada")
//	    errs.Set(nil)
//	})
//	// prints "changed" once
package reactive

// Package engine is an in-process Tox engine with a handle-based API.
//
// Every fallible call returns its result together with a numeric code from a
// closed per-call table (OptionsNewCode, NewCode, BootstrapCode, ...). The
// code is the only error channel: callers inspect it before trusting the
// result. Codes follow the order of the reference C API so a binding can map
// them one to one.
//
// A *Tox is not safe for concurrent use. All network work happens inside
// Iterate: transports only queue received packets, and callbacks registered
// with the Callback* setters fire synchronously from Iterate.
//
//	opts, code := engine.OptionsNew()
//	if code != engine.OptionsNewOK {
//	    return
//	}
//	defer engine.OptionsFree(opts)
//	tox, code := engine.New(opts)
//	for {
//	    tox.Iterate()
//	    time.Sleep(tox.IterationInterval())
//	}
package engine

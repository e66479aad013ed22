// Package shutdown coordinates cleanup when fintrack-cli exits.
//
// A command may be interrupted while a gateway call is in flight. The
// signal cancels the command context so the caller stops waiting, while
// registered hooks (closing the credential store, flushing logs) still
// run exactly once, in reverse order of registration.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnClose(store.Close)
//	defer h.Shutdown()
package shutdown

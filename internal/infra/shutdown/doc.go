// Package shutdown stops refstate-server in an orderly way.
//
// A Handler waits for SIGINT, SIGTERM, Trigger or a cancelled context and
// then runs the registered hooks in reverse order under one timeout:
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("storage", func(context.Context) error { return store.Close() })
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown

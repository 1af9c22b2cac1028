// Package httpserver runs the tenantd HTTP server with graceful shutdown and
// serves its health endpoint.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(context.Context) error { return store.Close() }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Run returns once ctx is canceled or SIGINT/SIGTERM arrives and in-flight
// requests are drained.
package httpserver

// Package requestid assigns every inbound request an id, exposes it to the
// logger and forwards it on outgoing calls.
//
//	r.Use(requestid.Middleware)
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	client := &http.Client{Transport: requestid.Transport(nil)}
package requestid

// Package clientip extracts the originating client address from a request
// served behind reverse proxies.
//
// Proxy headers are trusted only when configured:
//
//	ips := clientip.New(clientip.DefaultHeaders...)
//	r.Use(ips.Middleware)
//	r.Use(httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(ips.KeyFunc)))
//
// Handlers and log records read the address with FromContext and LoggerExtractor.
package clientip

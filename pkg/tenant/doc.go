// Package tenant resolves the tenant a signed-in user works in and keeps every place
// that remembers it in agreement.
//
// A tenant id lives in up to four places: a claim on the user's identity token, the
// remote tenant record service, durable key-value storage and a 30-day cookie. These
// copies drift (a new device, an expired cookie, a failed write). Resolver picks one
// winner by fixed precedence and overwrites the rest.
//
// # Precedence
//
//  1. Session claim (custom:tenantId by default). The system of record.
//  2. Remote record, consulted only when the claim is missing or malformed.
//  3. Durable storage.
//  4. Cookie.
//
// A value that is not a canonical 8-4-4-4-12 UUID counts as absent. When nothing
// valid is found the resolver derives a version 5 UUID from the user id, but only
// when the request is flagged as a new account. Every other miss fails with
// ErrNoValidIdentifier and leaves storage untouched, so a transient outage never
// silently hands the user an empty tenant.
//
// # Usage
//
//	resolver := tenant.NewResolver(
//		tenant.WithLogger(log),
//		tenant.WithMetrics(tenant.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//
//	mw := tenant.Middleware(resolver, tenant.Sources{
//		Sessions: verifier.Provider,
//		Durable:  durable.ForUser(store),
//		Cookies:  cookies.Store,
//		Remote:   client,
//	})
//
//	r.With(mw).Get("/api/tenant", tenant.Handler().ServeHTTP)
//
// Handlers behind the middleware read the identity with FromContext or IDFromContext.
//
// # Errors
//
//   - ErrNoValidIdentifier: nothing to resolve and not a sign-up; show retry or sign-out.
//   - ErrNoSession: no authenticated user.
//   - ErrRemoteUnavailable: logged only; resolution continues from local sources.
//   - ErrDerivationFailure: logged; a random id is minted instead. Returned only when
//     the random source fails too.
//   - ErrInvalidIdentifierFormat: returned by ParseID, never by Resolve.
package tenant

// Package authsession verifies the HS256 identity tokens issued to signed-in
// users and exposes them to the tenant resolver.
//
// A token's subject is the user id, "email" the address and "attrs" the custom
// provider attributes (custom:tenantId among them). Browser clients send it in
// the access_token cookie, API clients as a bearer token.
//
//	verifier, err := authsession.NewFromConfig(cfg)
//	mw := tenant.Middleware(resolver, tenant.Sources{
//		Sessions: verifier.Provider,
//		// ...
//	})
//
// When the tenant came from anywhere but the token, the provider's ForceRefresh
// re-issues the token with the tenant claim so later requests resolve from the
// session directly.
package authsession

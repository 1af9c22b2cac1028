// Package cookie writes and reads plain HTTP cookies with shared defaults and
// exposes a request-scoped Jar that implements tenant.CookieStore.
//
// The tenant cookie is meant to be readable by the dashboard shell, so values are
// neither signed nor encrypted and HttpOnly is off unless configured.
//
//	cookies := cookie.New(cookie.WithSecure(true))
//	mw := tenant.Middleware(resolver, tenant.Sources{Cookies: cookies.Store, ...})
package cookie

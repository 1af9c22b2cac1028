// Package tenantclient is the HTTP client for the tenant record service.
//
// The service exposes three endpoints, all authenticated with the signed-in
// user's bearer token:
//
//	GET  /tenant                -> {"tenantId": "...", "source": "..."} or 404
//	POST /tenant                {"tenantId": "..."}
//	POST /tenant/ensure-record  {"tenantId", "userId", "email", "businessName", "forceCreate"}
//	                            -> {"tenantId": "...", "created": true}
//
// Client implements tenant.RemoteService: a 404 maps to tenant.ErrTenantNotFound
// and every transport, status or decoding failure is joined with
// tenant.ErrRemoteUnavailable. A Breaker fails calls fast after consecutive
// failures.
//
//	client, err := tenantclient.NewFromConfig(cfg, tenantclient.WithLogger(log))
package tenantclient

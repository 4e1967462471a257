// Package identity tracks the user a request acts for.
//
// Requests reach the server through an authenticating proxy that names the
// user in the X-Cruise-User header. Requests without it are anonymous.
//
//	id := identity.FromRequest(r)
//	ctx = identity.Set(ctx, id)
//
//	user := identity.User(ctx)
package identity

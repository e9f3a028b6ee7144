package globals

type ContextKey string

// UserKey carries the authenticated *structs.User resolved by the auth
// middleware through the request context.
const UserKey ContextKey = "user"

/*
Package apiclient is the HTTP client the portal uses to call the garage REST
API on behalf of a signed-in user.

# Client vs Session

A Client holds configuration (base URL, token lifetimes, refresh endpoint)
and the refresh coordinator. A Session binds a Client to one token store:
the browser's cookies for a portal request, or a MemoryStore in-process.

	api := apiclient.NewClient("api", "https://garage.example.com")

	session := api.Session(tokenstore.NewCookieStore(w, r, opts))
	var jobs []Job
	err := session.GetJSON(ctx, "/api/customer/jobs", &jobs)

# Silent refresh

Every request carries "Authorization: Bearer <authToken>" when a token is
stored. When the API answers 401 the session exchanges the refresh token at
POST /api/auth/refresh-token, stores the new access token and replays the
request once. Concurrent requests that hit 401 while an exchange is running
for the same refresh token wait for it instead of starting their own, then
replay with the token it produced.

A replay that is answered 401 again fails with ErrRetryExhausted; it never
triggers a second exchange. When the exchange is impossible (no refresh
token) or fails, the whole session is cleared from the store, the client's
OnSessionExpired hook runs and every waiting request fails with
ErrSessionExpired. Other statuses and transport errors are returned as is.

# Chat

The chat assistant API is a second Client with its own base URL and
coordinator; the contract is identical.
*/
package apiclient

// Package adminsdk is the Go client for the QuizMe admin service.
//
// The client keeps its credentials in a TokenStore and attaches them to
// every outgoing request through an AuthTransport. When a request comes
// back 401 the transport refreshes the session once, transparently, and
// replays the request; callers only ever see the final result. The SDK's
// own login, register, refresh and logout calls are marked so they never
// recurse through that recovery path.
//
// Basic usage:
//
//	store, _ := adminsdk.NewFileStore("/var/lib/quizme/session.json")
//	client := adminsdk.NewClient("https://admin.quizme.example", store)
//
//	user, err := client.Login(ctx, "alice", "secret")
//	if err != nil {
//		var apiErr *adminsdk.APIError
//		if errors.As(err, &apiErr) {
//			// server-provided message, e.g. "Invalid credentials"
//		}
//		return err
//	}
//
//	// Subsequent requests through client.HTTPClient carry the bearer
//	// token and survive access-token expiry without caller involvement.
//	me, err := client.Me(ctx)
//
// Session wraps a Client with the state machine a UI needs: hydration
// from persisted state, a loading flag, a last-error slot, and a
// navigation callback fired on login and logout transitions.
package adminsdk

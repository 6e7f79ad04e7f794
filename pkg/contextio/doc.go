// Package contextio is a client for the Context.IO email-indexing REST API.
//
// # Overview
//
// Every API action is a signed HTTP request to
//
//	{scheme}://api.context.io/{version}/{action}
//
// Requests are signed with two-legged OAuth 1.0a: only the consumer key and
// secret are used and no user token is involved. The OAuth parameters are sent
// in the query string by default, or in an Authorization header when
// Config.AuthHeaders is set.
//
// # Actions
//
// The supported actions are listed as Action constants. Each action accepts a
// fixed set of parameter names; Client.Do drops any other parameter before the
// request is built. Names are matched case-insensitively and rewritten to the
// casing the API expects.
//
//	client, err := contextio.New(key, secret)
//	if err != nil {
//		return err
//	}
//
//	resp, err := client.Do(ctx, contextio.AllMessages, "me@example.com", contextio.Params{
//		"since": "0",
//		"limit": "5",
//	})
//	if err != nil {
//		return err // transport failure
//	}
//	if resp.HasError {
//		// non-200 status or non-JSON body; resp still holds status and body
//	}
//
// # Responses
//
// A Response is returned for every completed HTTP exchange, including failed
// ones. HasError is set when the status is not 200 or the content type is not
// application/json. The body is kept raw; Decode unmarshals it as JSON.
package contextio

// Package services defines the [Service] interface for music catalog providers and implements it for Spotify.
//
// # Authentication
//
// [SpotifyService.Authenticate] runs the OAuth2 client-credentials grant via [clientcredentials.Config].
// Client id, secret and grant type are sent in the form body. The resulting [models.AccessToken] is
// valid for one run; there is no refresh and no expiry tracking.
//
// # Fetching
//
// [SpotifyService.Fetch] performs one GET with the token's "Bearer <value>" Authorization header,
// throttled by a [rate.Limiter]. It classifies failures but never inspects the payload shape:
//   - [shared.ErrNotAuthenticated] : empty token
//   - [shared.HTTPError] : non-2xx status
//   - [shared.DecodeError] : body is not valid JSON
//   - [shared.ErrAPIRequest] : transport failure, timeout or cancellation
//
// No request is retried; retry policy belongs to whatever schedules the run.
package services

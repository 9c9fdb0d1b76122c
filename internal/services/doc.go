// Package services talks to the Tidal catalog API on behalf of the gateway.
//
// # API Service
//
// [APIService] performs authenticated GET requests. Each call takes the
// [credentials.Credential] loaded for the current request and sets it as a
// bearer token through [oauth2.Token.SetAuthHeader]. Responses outside 2xx
// become an [*UpstreamError] carrying the upstream status and body verbatim.
//
// # Catalog
//
// [TidalService] implements [Catalog]. Two base URLs are in play:
//   - api_url (https://api.tidal.com/v1) for albums, artists, tracks, playlists, search and pages
//   - web_url (https://tidal.com/v1) for the home page and adaptive stream info
//
// Browse style endpoints carry countryCode, locale and deviceType; playback
// endpoints carry audioquality (or videoquality), playbackmode and assetpresentation.
//
// # Concurrency
//
// [FetchAll] joins independent calls with an errgroup: all results or the first error.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure, or any [*UpstreamError]
//   - [shared.ErrTimeout] : the upstream did not answer within the client timeout
//   - [shared.ErrMalformedResponse] : 2xx with a body that is not JSON
package services

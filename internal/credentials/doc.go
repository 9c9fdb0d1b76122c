// Package credentials reads the bearer token written by the interactive login flow.
//
// The token file is read on every call to [Store.Load] so that a login run
// takes effect without restarting the gateway. Nothing is cached between reads.
//
// Token file format:
//
//	{"access_token": "...", "country_code": "US"}
//
// country_code is optional and defaults to [DefaultCountryCode].
package credentials

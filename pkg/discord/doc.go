// Package discord is a thin client for the parts of the Discord REST API v10
// this service needs: guild and role lookups, member role grants and
// revocations, and the OAuth2 flow (with refresh) used for login.
//
// Two authentication modes exist. The Client authenticates as the platform
// bot; member PUTs additionally carry the acting user's OAuth access token in
// the request body, which lets Discord join the user to the guild and assign
// roles in one call.
package discord

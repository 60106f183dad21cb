// Package auth signs users in with Discord OAuth and maintains their
// sessions. A session carries the Discord tokens needed to act on the
// user's behalf plus a cached answer to "does this user hold an active
// platform subscription", rechecked at most once a day.
package auth

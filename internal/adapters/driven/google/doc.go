// Package google implements the driven ports for the Google protocol
// surface: the OAuth2 authorization client, the Calendar gateway, and the
// Gmail gateway. All outbound calls go through per-service rate limiters.
package google

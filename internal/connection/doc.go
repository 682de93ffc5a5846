// Package connection implements the websocket client used by streaming sources.
//
// A Client owns one push connection:
//   - Dials with a bounded handshake timeout
//   - Answers server pings and extends the read deadline on every frame
//   - Delivers timestamped messages on a buffered channel
//   - Reports the first read error on Errors() and stops
//
// Reconnection is not handled here; the streaming runner redials with backoff.
package connection

// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package auth gates the live feed behind a session token.

Sessions are issued by an external collaborator; this package only verifies
them. In jwt mode a token is an HS256-signed JWT carrying a username and a
role, and the live feed is never opened without one. In none mode every
caller is treated as an anonymous viewer (development only; config
validation forbids it in production).

Tokens are accepted from the Authorization header ("Bearer <token>"), the
"token" cookie, or the "token" query parameter used by browser websocket
upgrades.
*/
package auth

// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

/*
Package websocket pushes refresh progress to dashboard clients.

A Hub owns the set of connected clients and fans out messages. Page
refreshes publish one progress message per fetch step ("1/3", "2/3", ...)
and a refresh_completed message when the page is done:

	{"type": "progress", "data": {"page": "customer", "step": "1/3", "status": "success", ...}}

Clients may narrow the stream to one page:

	{"type": "subscribe", "page": "timeperiod"}

and answer keepalives with {"type": "ping"}, which the server answers with
{"type": "pong"}.

The hub runs under the supervisor through Serve; cancelling its context
closes every client.
*/
package websocket

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package kiosk glues the client-side pieces of the vote flow together: the
camera, the liveness machine, embedding capture, and the server API.

A Session runs the cooperative frame loop. The camera is a scoped
resource, released on every exit path including cancellation and teardown
races. When the liveness machine reaches Done, the session captures an
embedding and verifies it against the server under a hard 10-second
timeout; any failure resets the machine to Blink (all progress cleared)
and surfaces a retryable error, up to an attempt budget.

The OTP fallback uses an explicit RequestState (Idle → Sending → Sent) so
a double-tap cannot fire two sends, while a deliberate resend after the
server cool-down still works.

Client implements the API over HTTP with the session identity header.
*/
package kiosk

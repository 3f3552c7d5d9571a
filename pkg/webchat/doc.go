// Package webchat serves the browser chat widget.
//
// The server is stateless: the browser owns the transcript and posts it back with every
// submission. Two transports carry the same exchange:
//   - POST /api/chat and POST /api/clear, one JSON request per event.
//   - GET /ws, a websocket that accepts submit/clear frames and answers each with the new
//     transcript. Frames from one connection are processed strictly in order.
//
// GET / renders the page for the configured persona, /static/ serves the embedded assets and
// /healthz reports liveness.
package webchat

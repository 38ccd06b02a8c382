// Package websocket exposes dispatcher channels to browser and service
// clients over WebSocket connections.
//
// Stream subscribes each connection to an Observable and writes every event
// as a JSON text frame:
//
//	{"kind":"next","value":{"hidden":true}}
//	{"kind":"completed"}
//	{"kind":"error","error":"upstream lost"}
//
// A new connection first receives the replayed latest value when the channel
// has one. The connection ends when the client disconnects or the channel
// terminates; after a terminal event the server sends a close frame.
//
// Bridge additionally reads frames from the client, decodes each one as a
// bare state value and publishes it through the channel's write endpoint:
//
//	d := dispatcher.New[Visibility]()
//	http.Handle("/visibility", websocket.Bridge[Visibility](d,
//		websocket.WithLogger(logger),
//		websocket.WithAllowAnyOrigin(),
//	))
//
// Malformed client frames are logged and skipped. Clients can never
// terminate the channel.
package websocket

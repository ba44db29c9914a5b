// Package obsws implements a client for the OBS Studio obs-websocket
// remote-control protocol (4.x JSON dialect).
//
// The client owns a single websocket connection to OBS. Requests are
// correlated with responses by message ID, so any number of goroutines can
// issue calls concurrently. Events pushed by OBS are delivered to one
// callback goroutine in the order they were received.
//
// # Architecture
//
//	┌──────────────┐  Call()   ┌──────────────┐  websocket  ┌───────────┐
//	│    bridge    │──────────►│    obsws     │◄───────────►│ OBS Studio│
//	│              │◄──────────│   (this pkg) │             │           │
//	└──────────────┘  events   └──────────────┘             └───────────┘
//
// # Usage
//
//	client, err := obsws.Dial(ctx, obsws.Config{
//	    URL:      "ws://127.0.0.1:4444",
//	    Password: "secret",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	var list obsws.SceneList
//	if err := client.Call(ctx, obsws.RequestGetSceneList, nil, &list); err != nil {
//	    return err
//	}
//
// # Errors
//
// Failures reported by OBS itself come back as *RequestError carrying the
// remote reason string. Transport problems wrap the sentinel errors in
// errors.go.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package obsws

// Package osc provides the UDP transport for Open Sound Control messages.
//
// It wraps github.com/hypebeast/go-osc with a listener that flattens bundles
// into individual messages and a sender for outbound cue triggers. Address
// semantics are left to the caller.
//
//	srv, err := osc.Listen(osc.ServerConfig{Address: "0.0.0.0:3333"}, handler)
//	go srv.Serve()
//	defer srv.Close()
//
//	client := osc.NewClient(osc.ClientConfig{Host: "127.0.0.1", Port: 53000})
//	err = client.SendMessage("/cue/12/start")
package osc

// Package core provides the caller-facing types for the Kimi web-API engine.
//
// The core package defines the data model (chats, uploaded files, messages),
// the stream event union, the error taxonomy, and the streaming primitives.
// The engine itself lives in the kimi package:
//
//	engine, err := kimi.New(kimi.WithCookiesFile("cookies.txt"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
// # Streaming
//
// Streaming responses are delivered through [MessageStream], a channel triple
// in which Events carries typed protocol events in network-arrival order.
// Cancel the request context to abandon a stream; the engine closes the
// underlying connection and all channels:
//
//	stream, err := chat.SendMessageStream(ctx, "Hello")
//	for ev := range stream.Events {
//	    if chunk, ok := ev.(core.CompletionChunk); ok {
//	        fmt.Print(chunk.Text)
//	    }
//	}
//
// # Errors
//
// Every failure surfaces as a *[Error] wrapping one of the classification
// sentinels. Catch broadly with errors.As or narrowly with errors.Is:
//
//	if errors.Is(err, core.ErrAuthentication) {
//	    // refresh the cookie file
//	}
package core

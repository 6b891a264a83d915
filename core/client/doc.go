// Package client is the high-level entry point for LLM generation. It wires
// together provider resolution, structured-output strategy selection, key
// refresh, and streaming assembly behind a small option-based API:
//
//	c := client.New(client.WithModel("gpt-4o"))
//	result, err := c.Generate(ctx, "name the capital of France")
//	text, err := result.Text(ctx)
//
// Results are lazy and dual-interface: Text buffers, Stream yields deltas,
// and either can be consumed after the other without re-issuing the request.
package client

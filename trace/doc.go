// Package trace reads, writes, generates and replays allocator traces.
//
// # Format
//
// Traces use the malloc-lab layout: four header integers (suggested heap
// size, number of ids, number of ops, weight) followed by one op per line.
//
//	20000
//	6
//	12
//	1
//	a 0 2040
//	a 1 2040
//	f 1
//	r 0 100
//	...
//
// "a id n" allocates n bytes for id, "r id n" resizes id to n bytes and
// "f id" frees it. Blank lines and # comments are ignored.
//
// # Replay
//
// Replay drives an alloc.Allocator through a trace. With Validate set,
// every returned block is checked for alignment, arena bounds, size and
// overlap with the other live blocks, and every payload is filled with an
// id-derived pattern whose xxh3 fingerprint is re-checked before the block
// is resized or freed.
//
// # Run
//
// Run replays many traces in parallel, one fresh allocator per trace, and
// returns the results in input order. Summarize and WriteReport turn the
// results into the utilization / throughput report:
//
//	results, err := trace.Run(ctx, traces, factory, trace.RunOptions{Timing: true})
//	if err != nil {
//	    return err
//	}
//	trace.WriteReport(os.Stdout, results)
//
// # Generate
//
// Generate produces a valid random trace from a seed. Equal seeds give
// equal traces; every id is freed before the trace ends.
package trace

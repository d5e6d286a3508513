// Package filtergraph builds ffmpeg -filter_complex expressions.
//
// A Graph is an ordered list of chains. Each chain reads input pads, applies
// filters in sequence, and writes output pads. Before serialization the graph
// checks that every link label is produced once, consumed once by a later
// chain, and that the declared sinks are left unconsumed for -map.
package filtergraph

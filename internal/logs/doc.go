// Package logs reads the diagnostic log and job transcripts for the CLI.
//
// Last reports the final lines of a file together with the byte offset it
// stopped at; Follow then polls from that offset and hands each new complete
// line to a callback until the context ends.
package logs

// Package compose turns composition settings into a concrete encode plan.
//
// It validates settings, probes every clip (concurrently, through an
// errgroup), resolves the effective output geometry from overrides, the first
// clip, and defaults, builds the normalize/caption/concat filter graph, and
// assembles the ffmpeg argument list handed to the encode job controller.
package compose

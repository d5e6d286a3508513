// Command videomixer concatenates video clips into one captioned,
// chapter-annotated MP4 by driving ffmpeg.
//
// Usage:
//
//	videomixer compose -o trip.mp4 clip1.mp4 clip2.mp4
//	videomixer probe clip1.mp4
//	videomixer serve
//
// Run `videomixer config init` to write a sample configuration.
package main

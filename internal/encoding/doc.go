// Package encoding picks the video encoder for a composition and the quality
// flags that go with it.
//
// Selection is table driven: accelerators reported by `ffmpeg -hwaccels` are
// matched against an ordered candidate list and the first hit wins. Without a
// match, or when ffmpeg cannot be queried, the software encoder of the codec
// family is used.
package encoding

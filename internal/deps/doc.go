// Package deps reports whether the external media tools are installed.
package deps

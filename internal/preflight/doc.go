// Package preflight provides readiness checks for the filesystem paths and
// external tools videomixer depends on.
//
// The compose command runs RunAll before launching an encode so a missing
// output directory fails fast instead of after probing every clip. The
// doctor command prints every check.
package preflight

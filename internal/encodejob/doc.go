// Package encodejob owns the lifecycle of a single ffmpeg encode.
//
// A Controller runs at most one job at a time. The job's monitor goroutine
// reads the combined ffmpeg output line by line, forwards every line as a log
// event, turns out_time_us tokens into progress fractions, and after the
// process exits decides the one terminal outcome under the controller lock.
// Cancel only marks the job and signals the process, so cancellation racing
// with natural completion still yields exactly one terminal event.
//
// On success the chapter list is appended to the job transcript and the
// transcript is handed to the retention store.
package encodejob

// Package api serves the HTTP and websocket surface for driving encodes
// remotely.
//
// # Endpoints
//
//	POST   /api/jobs           plan and start a job from a settings document
//	GET    /api/jobs/current   snapshot of the running or last job
//	DELETE /api/jobs/current   cancel the running job
//	GET    /api/history        recent jobs from the history ledger
//	GET    /api/transcripts    retained job transcripts
//	GET    /api/events         websocket stream of job events
//	GET    /metrics            Prometheus exposition
//	GET    /healthz            liveness
//
// Errors use a {"error": {"code", "message", "fields"}} envelope. Settings
// validation failures return 400 with one entry per invalid field; starting
// while a job runs returns 409.
//
// Every controller event is forwarded to websocket clients as
// {"type": <event type>, "data": <event>}. Progress is rate limited; terminal
// events are never dropped for a connected client.
package api

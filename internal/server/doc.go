// Package server exposes the second-brain stores over HTTP/JSON.
//
// # Routes
//
//   - /tasks, /notes, /conversations, /credentials
//     GET lists newest first (or fetches one with ?id=), POST creates,
//     PUT overwrites the record named by the body's id, DELETE ?id= removes.
//     GET /notes?id=X&format=html adds contentHtml rendered with goldmark.
//   - GET /search?q= matches all four kinds; an empty query matches nothing.
//   - GET /context?limit= summarizes recent tasks and notes with the status.
//   - GET|POST /capture lists or stores quick captures. POST honors an
//     Idempotency-Key header.
//   - GET|POST /status reads or replaces the working/idle status document.
//   - GET /health and GET /health/ready for liveness and store readiness.
//
// # Errors
//
// Errors are JSON objects {"error": "..."}. Validation failures and
// malformed bodies are 400, unknown ids are 404 and anything else is a
// logged 500 with a generic message.
//
// # Lifecycle
//
//	srv, err := server.New(cfg, logger)
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	err = srv.Run(ctx) // blocks; shuts down gracefully when ctx is done
//
// Run listens on server.http_addr, or on a tsnet node when tailscale is
// enabled, and keeps the status cache current with an fsnotify watch.
package server

// Package httpclient provides a composable HTTP request pipeline over
// net/http: interceptor chains, per-attempt deadlines merged with caller
// cancellation, retry with body replay, and progress-observable transfers.
//
// Dispatch paths
//   - Direct: the response body is buffered into Response.Body.
//   - Download (OnDownloadProgress set): the body is delivered unconsumed as
//     Response.Stream and a progress event fires per chunk as the caller
//     reads it.
//   - Upload (OnUploadProgress set): the request runs on the streaming
//     transport, events fire as body bytes are flushed to the wire, and the
//     response interceptor chain is bypassed.
//
// Retries
//   - Controlled via Builder.WithRetries(maxRetries, retryDelay) or a
//     per-request RetryPolicy; retries = N means N+1 attempts.
//   - Transport failures and 5xx responses are retried; cancellation and
//     deadline expiry never are, so callers can always tell "I cancelled it"
//     from "it took too long".
//   - Each attempt replays the frozen body copy taken at dispatch. A request
//     whose body is a live stream fails with a body_replay error the moment
//     a retry is attempted.
//   - The delay between attempts is fixed by default; WithBackoff plugs in
//     another schedule such as ExponentialBackoff.
//
// Every error surfaced by the pipeline carries a stable Type discriminator
// (see ErrorType), so callers branch on classification rather than message
// text.
package httpclient

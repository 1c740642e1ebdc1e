// Package captions turns a video's transcript into per-clip WebVTT captions.
//
// ParseTranscript decodes the transcript payloads the backend serves, Select
// keeps only the segments wholly contained in a clip window, and RenderVTT
// serializes the resulting cues. The Synthesizer ties these steps to the
// backend, the resource manager and the playback registry: it fetches a
// transcript once per video even when several clips ask for it at the same
// time, and it attaches the rendered document to the clip's mounted player
// using the caption toggle in effect when the fetch resolves.
//
// Missing or malformed transcripts are not errors. They produce an empty
// track and playback continues without captions.
package captions

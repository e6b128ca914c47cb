// Package recording captures inbound frames to disk and plays them back.
//
// A recording is the magic "CELLREC1" followed by entries of
//
//	u64 unix nanos | u8 session role | u32 payload length | payload
//
// in little-endian order. The payload is the raw message exactly as it
// arrived, before decoding, so a replay exercises the same decoder and
// dispatcher a live connection does.
//
// Recorder implements client.FrameSink:
//
//	rec, err := recording.Create("recordings", time.Now())
//	cfg := client.DefaultConfig().WithRecorder(rec)
//
// Replayer feeds a recording through a fresh dispatcher and returns a
// Summary with per-opcode counts and the final session snapshots.
// S3Sink uploads finished recordings to a bucket.
package recording

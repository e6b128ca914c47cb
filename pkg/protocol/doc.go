// Package protocol implements the binary wire protocol spoken between the
// cell game client and its server.
//
// Every message is a single frame: a one-byte opcode followed by a payload
// whose shape is fixed by the opcode. Multi-byte values are little-endian.
// Strings are raw UTF-8 terminated by a single zero byte.
//
// # Wire Format
//
//	┌──────────────┬────────────────────────────────────────┐
//	│ Opcode (u8)  │ Payload (shape determined by opcode)   │
//	└──────────────┴────────────────────────────────────────┘
//
// # Decoding
//
// Decode turns one message into one Frame variant (*Update, *Border,
// *Chat, ...). A message that is truncated, has trailing bytes, or starts
// with an unknown opcode is an error; callers treat that as fatal for the
// connection because frame boundaries cannot be recovered.
//
//	f, err := protocol.Decode(msg)
//	if err != nil {
//	    conn.Close()
//	    return
//	}
//	switch f := f.(type) {
//	case *protocol.Update:
//	    ...
//	}
//
// # Encoding
//
// Outbound intents have dedicated encoders (EncodeSpawn, EncodeMouse,
// EncodeAction, ...). EncodeFrame serializes inbound variants and is the
// inverse of Decode.
//
// # Identity strings
//
// The player identity travels as one string,
//
//	{skin}name$hat#rrggbb
//
// where every part but the name is optional and \ escapes \ { } $ #.
package protocol

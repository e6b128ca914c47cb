// Package world holds the client-side game state one session derives from
// the server: the entity table with its owned ids, the border, the
// leaderboard, chat history, camera and minimap roster.
//
// Nothing here is safe for concurrent use. Every value is owned by the
// client event loop, which applies frames one at a time.
//
// Cells are never removed the moment the server drops them. Destroy marks
// a cell and Sweep removes it once the grace window has passed, so death
// animations can finish:
//
//	t := world.NewTable()
//	t.Upsert(&rec, now)
//	t.Destroy(rec.ID, killer, now)
//	t.Sweep(now.Add(grace), grace) // returns []uint32{rec.ID}
package world

// Package session holds the per-connection game state and the multibox
// coordinator.
//
// A State is everything one logical session derives from its server
// connection: the entity table, the border, the leaderboard, chat, the
// camera, the minimap and HUD stats. States are owned by a single event
// loop goroutine and have no locks; other goroutines read them through
// Snapshot copies.
//
// # Multibox
//
// The Coordinator owns up to two States, primary and secondary, which
// share one Ownership so each session can tell its own cells from its
// sibling's:
//
//	co := session.NewCoordinator(session.DefaultConfig(), url, id)
//	in, needConnect := co.ToggleActive() // creates the secondary
//
// Only the active session receives input. Selecting another server
// discards the secondary.
//
// # Reconnect
//
// Each State carries a Backoff whose delays grow from Initial by Factor
// up to Max and fall back to Initial after a successful open.
package session

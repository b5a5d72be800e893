// Package osap implements the OSAP core: a vertex graph, packet pool,
// reversible-source-route codec, and per-tick cooperative transport
// loop for in-device message routing on embedded systems.
//
// A device is a tree of [Vertex] values rooted at a single root vertex.
// Datagrams carry a reversible source route — an opcode list that both
// directs a packet forward and is rewritten in place into a return
// route as it advances — so any vertex can reply without holding
// connection state. [Context] owns the packet [Pool] and the vertex
// tree and drives the scheduler one [Context.Tick] at a time; nothing
// in this package spawns a goroutine. Packet buffers live in the
// fixed-size pool allocated once by [NewPool]; the scheduler and the
// reply and endpoint handlers still make small heap allocations per
// call.
package osap

// Package ecs implements an archetype-based Entity Component System whose
// component data is packed into fixed-size chunks.
//
// Features:
// - Entities grouped by their exact component set (archetypes).
// - 16 KiB chunks holding an entity-id column plus one column per component.
// - Generational entity handles; stale handles are detected, never dangling.
// - Per-world type registry with construct/destruct/copy/move tables.
// - Two-phase query matching: cheap signature bits, then exact hash lists.
// - Synchronous event callbacks for entity and component lifecycle.
//
// A World is not safe for concurrent use. Every operation runs to completion
// on the calling goroutine.
package ecs

// ChunkSize is the size in bytes of one chunk, header included.
const ChunkSize = 16 * 1024

// MaxArchetypeComponents is the maximum number of component types a single
// archetype may hold.
const MaxArchetypeComponents = 64

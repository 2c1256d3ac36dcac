// Package timeline holds the time-segmented data model shared by the keyword
// generator, the footage resolver and the renderer.
//
// Key responsibilities:
//   - Segment, QueryTimeline and ResourceTimeline types.
//   - Repair: lexical cleanup of text-service responses (smart quotes, code
//     fences, single-quoted Python-style lists, known contraction breakage).
//   - Decode and DecodeWithRepair: strict parsing of the
//     [[[start,end],[kw,...]], ...] wire shape into a QueryTimeline.
//   - ValidateContiguous: ordering and gap/overlap checks.
//   - Merge: absorbs runs of unresolved footage into the preceding resolved
//     span so the renderer sees the fewest clip swaps.
//
// Nothing here performs I/O.
package timeline

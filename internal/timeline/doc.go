// Package timeline turns an ordered track list and a crossfade duration into
// absolute track placements. The placements are the single source of truth
// for both the render pipeline and any visual layout consumer.
package timeline

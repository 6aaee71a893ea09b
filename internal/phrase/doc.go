// Package phrase detects bar-aligned phrase boundaries from tempo, and scores
// arbitrary times against them.
//
// The detector assumes 4/4 time throughout. That is a deliberate scope
// limitation of the mix engine, not a configuration gap: transition placement
// targets the 4/8/16/32-bar phrase grid of dance music.
package phrase

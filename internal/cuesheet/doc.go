// Package cuesheet renders CD-style cue sheets describing where each track
// begins inside a rendered mix file.
//
// Track start times are the timeline placement offsets, so a cue entry marks
// the moment a track becomes audible, including during a crossfade. INDEX
// frames use the CD convention of 75 frames per second.
package cuesheet

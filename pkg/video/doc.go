// Package video turns a screen recording into the short list of frames worth
// analysing. Frames are decoded by ffmpeg, visited at a configurable rate and
// kept only when enough pixels changed since the previously kept frame.
package video

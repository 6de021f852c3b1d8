// Package watch reports when files under the watched trees last changed.
//
// Two Detector implementations exist. PollDetector walks the trees on each
// call and compares modification times, which works on any afero.Fs and
// needs no background goroutine. NotifyDetector subscribes to fsnotify
// events and remembers when the last one arrived.
//
// Both skip .git directories so that the sync's own commits never count as
// vault activity.
package watch

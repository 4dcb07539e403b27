// Package screenshot allocates sequential indices for screenshot artifacts.
//
// A Counter hands out strictly increasing indices to concurrent callers. At
// startup the host seeds it from the highest index already present in the
// screenshots directory (InitializeFromExisting) and then allocates with Next.
// Artifact names follow the form
//
//	screenshot_<YYYYMMDD>_<HHMMSS>_<index>_<uniqueid>.png
//
// where the index is the fourth underscore-separated segment.
package screenshot

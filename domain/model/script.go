package model

// ScriptEntry is one parsed lifecycle script invocation. Path is the first
// quote-aware token of the raw entry; Args is everything after it, kept
// verbatim. The two fields carry different trust levels: Path is a validated
// token suitable for path joining and existence checks, Args is an opaque
// string the emitter copies into the wrapper untouched so $VAR expansion and
// user quoting survive to execution time. Entries are parsed once and never
// re-tokenized.
type ScriptEntry struct {
	Raw  string
	Path string
	Args string
}

// Line renders the wrapper invocation line for this entry. mode is the shell
// word preceding the path, "bash" for executed hooks or "source" for the
// user-login hook; argument handling is identical in both modes.
func (e ScriptEntry) Line(mode string, script string) string {
	if e.Args == "" {
		return mode + " " + script
	}
	return mode + " " + script + " " + e.Args
}

package api

// Manifest describes an ad hoc patch against a vault: a list of files, each
// with the steps applied to it in order.
type Manifest struct {
	// Version of the vaultpatch manifest schema.
	Version string `json:"version" yaml:"version"`
	// Name identifies the patch in reports and the journal.
	Name string `json:"name" yaml:"name"`
	// Summary is a one-line description shown by `vaultpatch list`.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	// Files to patch, in order.
	Files []File `json:"files" yaml:"files"`

	// Dir is the directory the manifest was loaded from. Relative
	// replacement files resolve against it.
	Dir string `json:"-" yaml:"-"`
}

// File is one vault-relative target and its steps.
type File struct {
	// Path of the target, relative to the vault root.
	Path string `json:"path" yaml:"path"`
	// Backup writes <path>.bak before the first change.
	Backup bool `json:"backup,omitempty" yaml:"backup,omitempty"`
	// Steps applied in order; the first failing step aborts the file.
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one transformation. Op selects which of the other fields apply:
//
//	splice         Lines | Markers | Match | Balanced, Replacement or ReplacementFile
//	delete         Lines | Markers | Match | Balanced
//	literal        Old, New, All
//	regex          Pattern, Replacement, Limit
//	insert_before  Anchor, Text or ReplacementFile, Unless, AppendIfMissing
//	insert_after   Anchor, Text or ReplacementFile, Unless
//	confirm_modal  ConfirmLines
type Step struct {
	Op string `json:"op" yaml:"op"`

	Lines    *LineRange `json:"lines,omitempty" yaml:"lines,omitempty"`
	Markers  *Markers   `json:"markers,omitempty" yaml:"markers,omitempty"`
	Match    *Match     `json:"match,omitempty" yaml:"match,omitempty"`
	Balanced *Balanced  `json:"balanced,omitempty" yaml:"balanced,omitempty"`
	Anchor   *Anchor    `json:"anchor,omitempty" yaml:"anchor,omitempty"`

	Old string `json:"old,omitempty" yaml:"old,omitempty"`
	New string `json:"new,omitempty" yaml:"new,omitempty"`
	All bool   `json:"all,omitempty" yaml:"all,omitempty"`

	// Pattern is an RE2 expression for the regex op.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Limit   int    `json:"limit,omitempty" yaml:"limit,omitempty"`

	Replacement     string `json:"replacement,omitempty" yaml:"replacement,omitempty"`
	ReplacementFile string `json:"replacement_file,omitempty" yaml:"replacement_file,omitempty"`
	Text            string `json:"text,omitempty" yaml:"text,omitempty"`
	Unless          string `json:"unless,omitempty" yaml:"unless,omitempty"`
	AppendIfMissing bool   `json:"append_if_missing,omitempty" yaml:"append_if_missing,omitempty"`

	ConfirmLines []int `json:"confirm_lines,omitempty" yaml:"confirm_lines,omitempty"`

	// Optional steps that find nothing leave the text unchanged instead of
	// failing the file.
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}

// LineRange selects 1-based inclusive lines.
type LineRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
	// Expect must appear on the Start line.
	Expect string `json:"expect,omitempty" yaml:"expect,omitempty"`
}

// Anchor is a literal (Text) or an RE2 expression (Pattern).
type Anchor struct {
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// Nth picks the n-th occurrence (1-based); zero means the first.
	Nth int `json:"nth,omitempty" yaml:"nth,omitempty"`
}

// Markers selects the region between two anchors.
type Markers struct {
	Start        Anchor `json:"start" yaml:"start"`
	End          Anchor `json:"end" yaml:"end"`
	IncludeStart bool   `json:"include_start,omitempty" yaml:"include_start,omitempty"`
	IncludeEnd   bool   `json:"include_end,omitempty" yaml:"include_end,omitempty"`
	WholeLines   bool   `json:"whole_lines,omitempty" yaml:"whole_lines,omitempty"`
}

// Match selects the first match of an RE2 expression or one of its groups.
type Match struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Group   int    `json:"group,omitempty" yaml:"group,omitempty"`
}

// Balanced selects a block opened on the line matched by Head and closed
// where the Open/Close depth returns to zero.
type Balanced struct {
	Head string `json:"head" yaml:"head"`
	// Open and Close are single characters; they default to "{" and "}".
	Open  string `json:"open,omitempty" yaml:"open,omitempty"`
	Close string `json:"close,omitempty" yaml:"close,omitempty"`
	// Window bounds the scan in lines; zero selects 50.
	Window     int  `json:"window,omitempty" yaml:"window,omitempty"`
	SkipQuoted bool `json:"skip_quoted,omitempty" yaml:"skip_quoted,omitempty"`
}

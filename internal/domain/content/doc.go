// Package content holds the read-only catalog of practicals, tutor topics and
// quick-reference commands.
//
// The catalog ships embedded in the binary as YAML. A directory of YAML or
// TOML files may replace it at startup (CONTENT_DIR). Rich text is sanitized
// on load so every consumer can render it as trusted HTML.
package content

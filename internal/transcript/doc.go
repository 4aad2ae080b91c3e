// Package transcript renders conversation history for people: Markdown for the
// terminal and files, HTML (via goldmark) for sharing.
package transcript

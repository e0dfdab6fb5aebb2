// Package markdown turns Markdown documents into annotated text. A goldmark
// parser extended with math, front matter and span recording builds the
// syntax tree; Build walks it under a Policy and hands every source byte to
// an annotated.Builder. Service adds filesystem discovery and batch runs.
package markdown

// Package detect locates config and feature flag accessor calls in source
// text.
//
// Detection is pattern based, not grammar based: each language variant
// describes its call heads as regular expressions and a small scanner reads
// the key literal that follows. A whole-document precondition decides which
// variant applies; JavaScript-family documents are additionally classified as
// browser or server code by scanning for host signals.
package detect

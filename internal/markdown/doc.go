package markdown

// Supported syntax, one construct per line:
//
//	# .. ######   heading
//	> text        blockquote (one element per line)
//	- * + item    unordered list item
//	1. item       ordered list item
//	```           fence toggle; contents are verbatim
//
// Inline spans: ![alt](src), [text](href), `code`, **bold**, __bold__,
// *em*, _em_, ~~del~~. Spans do not nest; the text inside a span is
// escaped and emitted as-is.

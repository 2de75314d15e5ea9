// Package markup defines the values that flow through a conversion and the
// tagged text they render to.
//
// # Types
//
//   - Paragraph: one body paragraph as read from the source document
//   - Line: the classification of one paragraph (Title, ChapterStart,
//     Heading, VerseBlock or Plain)
//   - Verse: a numbered verse inside a VerseBlock
//   - Document: the nested output lines, <doc> through </doc>
//
// # Output
//
// Lines render to a small tag vocabulary:
//
//	<title> Genesis </title>
//	<chapter no="ወንጌል">
//	<heading> Intro </heading>
//	<verse no="1"> Text one </verse><verse no="2"> Text two </verse>
//	</chapter>
//
// A Document is those lines wrapped in <doc> and </doc> and joined by
// newlines. Chapter numbers are kept as the literal glyphs found in the
// source, never parsed as integers.
package markup

package letter

import "strings"

// Parse segments a letter into an ordered sequence of typed sections. It never
// fails: text with no recognisable headings degrades to a single section of
// type other, and a first block matching a greeting or referral opening is
// inferred as greeting/introduction even without an explicit heading line.
// Identical input always yields an identical section sequence.
func Parse(text string) []Section {
	if text == "" {
		return nil
	}

	lines := splitLinesWithOffsets(text)

	type boundary struct {
		lineIdx int
		match   headerMatch
	}
	var boundaries []boundary
	lastType := func() SectionType {
		if len(boundaries) == 0 {
			return ""
		}
		return boundaries[len(boundaries)-1].match.typ
	}
	for i, ln := range lines {
		if m, ok := detectHeader(ln.text); ok {
			boundaries = append(boundaries, boundary{lineIdx: i, match: m})
			continue
		}
		// Untitled trailing inference: a signoff or closing line starts a new
		// section even without a heading.
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" {
			continue
		}
		switch {
		case signoffRe.MatchString(trimmed) && lastType() != SectionSignoff:
			boundaries = append(boundaries, boundary{lineIdx: i, match: headerMatch{typ: SectionSignoff, rest: trimmed}})
		case closingRe.MatchString(trimmed) && len(boundaries) > 0 && lastType() != SectionClosing && lastType() != SectionSignoff:
			boundaries = append(boundaries, boundary{lineIdx: i, match: headerMatch{typ: SectionClosing, rest: trimmed}})
		}
	}

	var sections []Section

	// Leading untitled content before the first heading.
	leadEnd := len(lines)
	if len(boundaries) > 0 {
		leadEnd = boundaries[0].lineIdx
	}
	if leadEnd > 0 {
		sections = append(sections, inferLeadingSections(lines[:leadEnd], text)...)
	}

	for bi, b := range boundaries {
		endLine := len(lines)
		if bi+1 < len(boundaries) {
			endLine = boundaries[bi+1].lineIdx
		}

		start := lines[b.lineIdx].offset
		end := len(text)
		if endLine < len(lines) {
			end = lines[endLine].offset
		}

		content := b.match.rest
		if body := collectContent(lines[b.lineIdx+1 : endLine]); body != "" {
			if content != "" {
				content += "\n" + body
			} else {
				content = body
			}
		}

		sections = append(sections, Section{
			Type:        b.match.typ,
			Header:      b.match.header,
			Content:     content,
			StartOffset: start,
			EndOffset:   end,
		})
	}

	if len(sections) == 0 {
		// No structure at all — the whole document is one section.
		typ := SectionOther
		if first := firstNonEmptyLine(lines); first != "" {
			if greetingRe.MatchString(first) {
				typ = SectionGreeting
			} else if introRe.MatchString(first) {
				typ = SectionIntroduction
			}
		}
		return []Section{{
			Type:        typ,
			Content:     strings.TrimSpace(text),
			StartOffset: 0,
			EndOffset:   len(text),
		}}
	}

	return sections
}

// inferLeadingSections types the untitled content before the first explicit
// heading. A greeting line becomes its own section; a referral-style opening
// becomes an introduction; anything else is other.
func inferLeadingSections(lines []offsetLine, text string) []Section {
	first := -1
	for i, ln := range lines {
		if strings.TrimSpace(ln.text) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		// Only whitespace before the first heading; attach it as an untyped
		// section so offsets still tile the document.
		return []Section{{
			Type:        SectionOther,
			Content:     "",
			StartOffset: lines[0].offset,
			EndOffset:   lines[len(lines)-1].end,
		}}
	}

	var sections []Section
	start := lines[0].offset
	rest := lines[first:]

	if greetingRe.MatchString(strings.TrimSpace(rest[0].text)) {
		// The greeting is the first line alone; following untitled prose is a
		// separate introduction/other block.
		sections = append(sections, Section{
			Type:        SectionGreeting,
			Content:     strings.TrimSpace(rest[0].text),
			StartOffset: start,
			EndOffset:   rest[0].end,
		})
		start = rest[0].end
		rest = rest[1:]
		for len(rest) > 0 && strings.TrimSpace(rest[0].text) == "" {
			rest = rest[1:]
		}
	}

	if len(rest) == 0 {
		if start < lines[len(lines)-1].end {
			sections[len(sections)-1].EndOffset = lines[len(lines)-1].end
		}
		return sections
	}

	typ := SectionOther
	if introRe.MatchString(strings.TrimSpace(rest[0].text)) {
		typ = SectionIntroduction
	}
	sections = append(sections, Section{
		Type:        typ,
		Content:     collectContent(rest),
		StartOffset: start,
		EndOffset:   lines[len(lines)-1].end,
	})
	return sections
}

type offsetLine struct {
	text   string
	offset int // byte offset of the line start in the document
	end    int // byte offset just past the line's trailing newline
}

func splitLinesWithOffsets(text string) []offsetLine {
	var lines []offsetLine
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, offsetLine{text: text[start:i], offset: start, end: i + 1})
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, offsetLine{text: text[start:], offset: start, end: len(text)})
	} else if len(lines) > 0 {
		lines[len(lines)-1].end = len(text)
	}
	return lines
}

func collectContent(lines []offsetLine) string {
	var parts []string
	for _, ln := range lines {
		parts = append(parts, ln.text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func firstNonEmptyLine(lines []offsetLine) string {
	for _, ln := range lines {
		if t := strings.TrimSpace(ln.text); t != "" {
			return t
		}
	}
	return ""
}

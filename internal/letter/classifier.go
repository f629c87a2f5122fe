package letter

import (
	"regexp"
	"strings"
)

// headerPattern maps a textual heading to a section type. The list is ordered:
// the first matching pattern wins, so more specific headings (e.g. "past
// medical history") must appear before their generic prefixes ("history").
type headerPattern struct {
	re  *regexp.Regexp
	typ SectionType
}

var headerPatterns = []headerPattern{
	{regexp.MustCompile(`(?i)^(past medical history|previous medical history|pmhx?|background)\b`), SectionPastMedicalHistory},
	{regexp.MustCompile(`(?i)^(history of (the )?presenting (complaint|illness)|presenting complaint|presenting problem|hpc|hopc)\b`), SectionPresentingComplaint},
	{regexp.MustCompile(`(?i)^(family history|fhx?)\b`), SectionFamilyHistory},
	{regexp.MustCompile(`(?i)^(social history|shx?)\b`), SectionSocialHistory},
	{regexp.MustCompile(`(?i)^(current medications?|medications?|medication list|drug history|dhx?)\b`), SectionMedications},
	{regexp.MustCompile(`(?i)^(physical examination|examination( findings)?|on examination|o/e)\b`), SectionExamination},
	{regexp.MustCompile(`(?i)^(investigations?|investigation results|results|imaging|pathology|laboratory( results)?|bloods)\b`), SectionInvestigations},
	{regexp.MustCompile(`(?i)^(impression|assessment|clinical impression|diagnosis|diagnoses|summary)\b`), SectionImpression},
	{regexp.MustCompile(`(?i)^(management plan|treatment plan|plan|management|recommendations?)\b`), SectionPlan},
	{regexp.MustCompile(`(?i)^(follow[ -]?up( plan| arrangements)?|review( arrangements)?|next (appointment|review))\b`), SectionFollowUp},
	{regexp.MustCompile(`(?i)^(clinical history|history)\b`), SectionHistory},
	{regexp.MustCompile(`(?i)^(introduction|reason for referral|referral)\b`), SectionIntroduction},
}

var (
	greetingRe = regexp.MustCompile(`(?i)^dear\b`)
	introRe    = regexp.MustCompile(`(?i)^(thank you for (referring|your referral)|re:|regarding|i (reviewed|saw|had the pleasure))`)
	signoffRe  = regexp.MustCompile(`(?i)^(yours (sincerely|faithfully|truly)|kind(est)? regards|best (wishes|regards)|with (best wishes|thanks)|sincerely|regards)\b`)
	closingRe  = regexp.MustCompile(`(?i)^(please (do not hesitate|don't hesitate|feel free|contact)|thank you (again|for)|i (will|would be happy)|should you (have|require))`)

	titleCaseColonRe = regexp.MustCompile(`^([A-Z][A-Za-z'/-]*(\s+[A-Za-z'/-]+){0,5})\s*:`)
	allCapsColonRe   = regexp.MustCompile(`^([A-Z][A-Z '/-]{1,40})\s*:`)
)

// Classify maps a single line to a section type via the ordered pattern list.
// The second return is false when no explicit pattern matches.
func Classify(line string) (SectionType, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return SectionOther, false
	}
	for _, p := range headerPatterns {
		if p.re.MatchString(trimmed) {
			return p.typ, true
		}
	}
	switch {
	case greetingRe.MatchString(trimmed):
		return SectionGreeting, true
	case signoffRe.MatchString(trimmed):
		return SectionSignoff, true
	}
	return SectionOther, false
}

// headerMatch is the result of header detection on one line.
type headerMatch struct {
	typ    SectionType
	header string
	rest   string // content sharing the header line, after the colon
}

// detectHeader decides whether a line introduces a new section. It accepts
// explicit pattern matches ("Plan: ...", "PAST MEDICAL HISTORY") plus generic
// heading shapes: a Title-Case or ALL-CAPS line ending in a colon, or a
// markdown-style leading heading marker.
func detectHeader(line string) (headerMatch, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return headerMatch{}, false
	}

	// Markdown heading marker.
	if strings.HasPrefix(trimmed, "#") {
		title := strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		typ, ok := Classify(title)
		if !ok {
			typ = SectionOther
		}
		return headerMatch{typ: typ, header: title}, title != ""
	}

	// Explicit pattern on the leading words of the line. The header may share
	// its line with content ("History: chest pain.").
	for _, p := range headerPatterns {
		loc := p.re.FindStringIndex(trimmed)
		if loc == nil || loc[0] != 0 {
			continue
		}
		after := trimmed[loc[1]:]
		if after == "" {
			return headerMatch{typ: p.typ, header: trimmed}, true
		}
		if strings.HasPrefix(after, ":") {
			return headerMatch{
				typ:    p.typ,
				header: strings.TrimSpace(trimmed[:loc[1]]),
				rest:   strings.TrimSpace(after[1:]),
			}, true
		}
		// Matched words followed by more prose on the same line without a
		// colon ("History suggests...") — not a heading.
	}

	// Generic Title-Case / ALL-CAPS heading ending in a colon.
	if m := allCapsColonRe.FindStringSubmatch(trimmed); m != nil {
		return genericHeader(m[1], trimmed), true
	}
	if m := titleCaseColonRe.FindStringSubmatch(trimmed); m != nil {
		return genericHeader(m[1], trimmed), true
	}

	return headerMatch{}, false
}

func genericHeader(title, line string) headerMatch {
	typ, ok := Classify(title)
	if !ok {
		typ = SectionOther
	}
	rest := ""
	if idx := strings.Index(line, ":"); idx >= 0 {
		rest = strings.TrimSpace(line[idx+1:])
	}
	return headerMatch{typ: typ, header: strings.TrimSpace(title), rest: rest}
}

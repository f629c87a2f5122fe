package letter

import "testing"

const sampleLetter = `Dear Dr Smith,

Thank you for referring this patient to the cardiology clinic.

History: chest pain on exertion for three months.

Examination:
Blood pressure 140/90. Heart sounds normal.

Plan:
Start aspirin 100mg daily.
Arrange a stress echocardiogram.

Yours sincerely,
Dr Jones`

func TestParseStructuredLetter(t *testing.T) {
	sections := Parse(sampleLetter)

	wantTypes := []SectionType{
		SectionGreeting,
		SectionIntroduction,
		SectionHistory,
		SectionExamination,
		SectionPlan,
		SectionSignoff,
	}
	if len(sections) != len(wantTypes) {
		t.Fatalf("expected %d sections, got %d: %+v", len(wantTypes), len(sections), sections)
	}
	for i, want := range wantTypes {
		if sections[i].Type != want {
			t.Errorf("section %d: type = %s, want %s", i, sections[i].Type, want)
		}
	}

	if got := sections[2].Content; got != "chest pain on exertion for three months." {
		t.Errorf("history content = %q", got)
	}
	if got := sections[5].Content; got != "Yours sincerely,\nDr Jones" {
		t.Errorf("signoff content = %q", got)
	}
}

func TestParseHeaderSharingLineWithContent(t *testing.T) {
	sections := Parse("History: chest pain.")
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Type != SectionHistory {
		t.Errorf("type = %s, want %s", sections[0].Type, SectionHistory)
	}
	if sections[0].Content != "chest pain." {
		t.Errorf("content = %q, want %q", sections[0].Content, "chest pain.")
	}
}

func TestParseOffsetsTileDocument(t *testing.T) {
	inputs := []string{
		sampleLetter,
		"History: chest pain.",
		"Dear Mr Brown,\n\nJust a short note.\n",
		"no headings here, only prose across\ntwo lines",
		"Plan:\ndo the thing\n\nFollow up:\nsix weeks",
	}

	for _, text := range inputs {
		sections := Parse(text)
		if len(sections) == 0 {
			t.Fatalf("no sections for %q", text)
		}
		if sections[0].StartOffset != 0 {
			t.Errorf("first section starts at %d, want 0 (input %q)", sections[0].StartOffset, text)
		}
		if last := sections[len(sections)-1]; last.EndOffset != len(text) {
			t.Errorf("last section ends at %d, want %d (input %q)", last.EndOffset, len(text), text)
		}
		for i := 1; i < len(sections); i++ {
			if sections[i].StartOffset != sections[i-1].EndOffset {
				t.Errorf("section %d starts at %d but previous ends at %d (input %q)",
					i, sections[i].StartOffset, sections[i-1].EndOffset, text)
			}
		}
	}
}

func TestParseUnstructuredText(t *testing.T) {
	sections := Parse("The patient was seen today and is doing well overall.")
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Type != SectionOther {
		t.Errorf("type = %s, want %s", sections[0].Type, SectionOther)
	}
}

func TestParseEmpty(t *testing.T) {
	if sections := Parse(""); sections != nil {
		t.Errorf("expected nil for empty input, got %+v", sections)
	}
}

func TestParseDeterministic(t *testing.T) {
	a := Parse(sampleLetter)
	b := Parse(sampleLetter)
	if len(a) != len(b) {
		t.Fatalf("section counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("section %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestParseGreetingIsOwnSection(t *testing.T) {
	sections := Parse("Dear Dr Patel,\n\nThank you for referring Mrs X.\n\nPlan:\nreview in clinic")
	if sections[0].Type != SectionGreeting {
		t.Fatalf("first section = %s, want %s", sections[0].Type, SectionGreeting)
	}
	if sections[0].Content != "Dear Dr Patel," {
		t.Errorf("greeting content = %q", sections[0].Content)
	}
	if sections[1].Type != SectionIntroduction {
		t.Errorf("second section = %s, want %s", sections[1].Type, SectionIntroduction)
	}
}

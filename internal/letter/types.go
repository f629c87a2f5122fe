package letter

// SectionType identifies the clinical role of a block of letter text.
type SectionType string

const (
	SectionGreeting            SectionType = "greeting"
	SectionIntroduction        SectionType = "introduction"
	SectionHistory             SectionType = "history"
	SectionPresentingComplaint SectionType = "presenting_complaint"
	SectionPastMedicalHistory  SectionType = "past_medical_history"
	SectionMedications         SectionType = "medications"
	SectionFamilyHistory       SectionType = "family_history"
	SectionSocialHistory       SectionType = "social_history"
	SectionExamination         SectionType = "examination"
	SectionInvestigations      SectionType = "investigations"
	SectionImpression          SectionType = "impression"
	SectionPlan                SectionType = "plan"
	SectionFollowUp            SectionType = "follow_up"
	SectionClosing             SectionType = "closing"
	SectionSignoff             SectionType = "signoff"
	SectionOther               SectionType = "other"
)

// Section is one typed segment of a parsed letter. StartOffset and EndOffset
// are byte offsets into the original text; consecutive sections tile the
// document with no gaps.
type Section struct {
	Type        SectionType
	Header      string
	Content     string
	StartOffset int
	EndOffset   int
}

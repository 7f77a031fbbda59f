package syllabus

import "regexp"

// Document types accepted at upload.
const (
	DocumentSyllabus     = "syllabus"
	DocumentLectureNotes = "lecture_notes"
	DocumentGeneral      = "general"
)

var (
	syllabusHints = regexp.MustCompile(`(?i)syllabus|curriculum|course outline`)
	notesHints    = regexp.MustCompile(`(?i)lecture|notes|chapter`)
)

// DetectDocumentType guesses whether text is a syllabus or lecture notes.
func DetectDocumentType(text string) string {
	switch {
	case syllabusHints.MatchString(text):
		return DocumentSyllabus
	case notesHints.MatchString(text):
		return DocumentLectureNotes
	default:
		return DocumentGeneral
	}
}

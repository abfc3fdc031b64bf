package archive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"univault/internal/domain"
	"univault/internal/service/archive/vocabulary"
)

// documentPathSegments is the exact shape of the legacy document
// layout: academicYear/semesterType/ownerId/courseCode/documentType.
const documentPathSegments = 5

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// ParsedDocumentPath is the decomposition of a legacy fixed-depth
// document path.
type ParsedDocumentPath struct {
	AcademicYear string
	SemesterType string
	OwnerID      string
	CourseCode   string
	DocumentType string
}

// DocumentPathParser validates the one fixed five-segment layout older
// submissions are archived under. It is deliberately narrow: the
// free-form custom-folder hierarchy goes through the Resolver, never
// through here.
type DocumentPathParser struct {
	vocab *vocabulary.Registry
}

// NewDocumentPathParser creates the legacy parser.
func NewDocumentPathParser(vocab *vocabulary.Registry) *DocumentPathParser {
	return &DocumentPathParser{vocab: vocab}
}

// Parse accepts exactly academicYear/semesterType/ownerId/courseCode/documentType
// and fails with ErrInvalidPath for anything else.
func (p *DocumentPathParser) Parse(path string) (*ParsedDocumentPath, error) {
	segments := splitSegments(path)
	if len(segments) != documentPathSegments {
		return nil, fmt.Errorf("%w: expected %d segments, got %d",
			domain.ErrInvalidPath, documentPathSegments, len(segments))
	}

	year, semester, owner, course, docType := segments[0], segments[1], segments[2], segments[3], segments[4]

	match := academicYearPattern.FindStringSubmatch(year)
	if match == nil {
		return nil, fmt.Errorf("%w: academic year %q is not of the form NNNN-NNNN", domain.ErrInvalidPath, year)
	}
	start, _ := strconv.Atoi(match[1])
	end, _ := strconv.Atoi(match[2])
	if end != start+1 {
		return nil, fmt.Errorf("%w: academic year %q does not span consecutive years", domain.ErrInvalidPath, year)
	}

	if !p.vocab.IsSemester(semester) {
		return nil, fmt.Errorf("%w: unknown semester %q", domain.ErrInvalidPath, semester)
	}

	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: empty owner segment", domain.ErrInvalidPath)
	}
	if strings.TrimSpace(course) == "" {
		return nil, fmt.Errorf("%w: empty course segment", domain.ErrInvalidPath)
	}

	if !p.vocab.IsDocumentType(docType) {
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidPath, docType)
	}

	return &ParsedDocumentPath{
		AcademicYear: year,
		SemesterType: semester,
		OwnerID:      owner,
		CourseCode:   course,
		DocumentType: docType,
	}, nil
}

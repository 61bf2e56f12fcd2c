// Package dashboard assembles the signed-in learner's view: profile,
// enrollments with their cohort and program, and issued certificates.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	catalogModels "sparkfish/internal/catalog/models"
	certificateModels "sparkfish/internal/certificate/models"
	enrollmentModels "sparkfish/internal/enrollment/models"
	identityModels "sparkfish/internal/identity/models"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
)

type Learners interface {
	Profile(ctx context.Context, learnerID id.LearnerID) (*identityModels.Profile, error)
}

type Enrollments interface {
	ListForLearner(ctx context.Context, learnerID id.LearnerID) ([]*enrollmentModels.Enrollment, error)
}

type Catalog interface {
	CohortWithProgram(ctx context.Context, cohortID id.CohortID) (*catalogModels.Cohort, *catalogModels.Program, error)
}

type Certificates interface {
	ForEnrollments(ctx context.Context, enrollmentIDs []id.EnrollmentID) (map[id.EnrollmentID]*certificateModels.Certificate, error)
}

type Certificate struct {
	Code      string  `json:"code"`
	PDFURL    *string `json:"pdf_url,omitempty"`
	VerifyURL string  `json:"verify_url"`
}

type Entry struct {
	EnrollmentID id.EnrollmentID         `json:"enrollment_id"`
	Status       enrollmentModels.Status `json:"status"`
	EnrolledAt   time.Time               `json:"enrolled_at"`
	CohortTitle  string                  `json:"cohort_title"`
	StartDate    time.Time               `json:"start_date"`
	ScheduleText string                  `json:"schedule_text,omitempty"`
	ProgramTitle string                  `json:"program_title"`
	ProgramType  string                  `json:"program_type"`
	// MeetingURL is only exposed while the enrollment is active.
	MeetingURL  string       `json:"meeting_url,omitempty"`
	Certificate *Certificate `json:"certificate,omitempty"`
}

type Overview struct {
	Name      string  `json:"name"`
	IsAdmin   bool    `json:"is_admin"`
	Active    []Entry `json:"active"`
	Completed []Entry `json:"completed"`
}

type Service struct {
	learners     Learners
	enrollments  Enrollments
	catalog      Catalog
	certificates Certificates
	baseURL      string
	logger       *slog.Logger
}

func NewService(learners Learners, enrollments Enrollments, catalog Catalog, certificates Certificates, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		learners:     learners,
		enrollments:  enrollments,
		catalog:      catalog,
		certificates: certificates,
		baseURL:      baseURL,
		logger:       logger,
	}
}

// Overview lists the learner's active and completed enrollments. Cancelled
// enrollments are left out.
func (s *Service) Overview(ctx context.Context, learnerID id.LearnerID) (*Overview, error) {
	if learnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}

	profile, err := s.learners.Profile(ctx, learnerID)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}
	out := &Overview{
		Name:      profile.DisplayName(),
		Active:    []Entry{},
		Completed: []Entry{},
	}
	if profile != nil {
		out.IsAdmin = profile.IsAdmin
	}

	list, err := s.enrollments.ListForLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	ids := make([]id.EnrollmentID, 0, len(list))
	for _, e := range list {
		if e.Status != enrollmentModels.StatusCancelled {
			ids = append(ids, e.ID)
		}
	}
	certs := map[id.EnrollmentID]*certificateModels.Certificate{}
	if len(ids) > 0 {
		if certs, err = s.certificates.ForEnrollments(ctx, ids); err != nil {
			return nil, err
		}
	}

	type cohortView struct {
		cohort  *catalogModels.Cohort
		program *catalogModels.Program
	}
	cohorts := map[id.CohortID]cohortView{}

	for _, e := range list {
		if e.Status == enrollmentModels.StatusCancelled {
			continue
		}
		view, ok := cohorts[e.CohortID]
		if !ok {
			cohort, program, err := s.catalog.CohortWithProgram(ctx, e.CohortID)
			if err != nil {
				return nil, err
			}
			view = cohortView{cohort: cohort, program: program}
			cohorts[e.CohortID] = view
		}

		entry := Entry{
			EnrollmentID: e.ID,
			Status:       e.Status,
			EnrolledAt:   e.CreatedAt,
			CohortTitle:  view.cohort.Title,
			StartDate:    view.cohort.StartDate,
			ScheduleText: view.cohort.ScheduleText,
			ProgramTitle: view.program.Title,
			ProgramType:  view.program.Type.Label(),
		}
		if cert := certs[e.ID]; cert != nil {
			entry.Certificate = &Certificate{
				Code:      cert.Code,
				PDFURL:    cert.ArtifactURL,
				VerifyURL: s.baseURL + "/certificate/verify/" + cert.Code,
			}
		}
		if e.Status == enrollmentModels.StatusActive {
			entry.MeetingURL = view.cohort.MeetingURL
			out.Active = append(out.Active, entry)
		} else {
			out.Completed = append(out.Completed, entry)
		}
	}
	return out, nil
}

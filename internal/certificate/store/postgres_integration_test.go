//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	catalogModels "sparkfish/internal/catalog/models"
	catalogStore "sparkfish/internal/catalog/store"
	"sparkfish/internal/certificate/models"
	"sparkfish/internal/certificate/store"
	enrollmentModels "sparkfish/internal/enrollment/models"
	enrollmentStore "sparkfish/internal/enrollment/store"
	identityModels "sparkfish/internal/identity/models"
	identityStore "sparkfish/internal/identity/store"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
	"sparkfish/pkg/testutil/containers"
)

type PostgresCertificateSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresCertificateSuite(t *testing.T) {
	suite.Run(t, new(PostgresCertificateSuite))
}

func (s *PostgresCertificateSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresCertificateSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "certificates", "enrollments", "cohorts", "programs", "profiles", "auth_identities"))
}

func (s *PostgresCertificateSuite) seedEnrollment() id.EnrollmentID {
	catalog := catalogStore.NewPostgres(s.pg.DB)
	p := &catalogModels.Program{ID: id.NewProgramID(), Slug: "p-" + id.NewProgramID().String()[:8], Title: "P", Type: catalogModels.ProgramTypeShortIntensive, Active: true, CreatedAt: time.Now()}
	s.Require().NoError(catalog.CreateProgram(s.ctx, p))
	c, err := catalogModels.NewCohort(id.NewCohortID(), p.ID, "C", time.Now(), 10)
	s.Require().NoError(err)
	c.CreatedAt = time.Now()
	s.Require().NoError(catalog.CreateCohort(s.ctx, c))

	people := identityStore.NewPostgres(s.pg.DB)
	learnerID := id.NewLearnerID()
	s.Require().NoError(people.SaveIdentity(s.ctx, &identityModels.Identity{ID: learnerID, Email: "l@example.com", CreatedAt: time.Now()}))
	s.Require().NoError(people.SaveProfile(s.ctx, &identityModels.Profile{ID: learnerID, Name: "L", CreatedAt: time.Now()}))

	e, err := enrollmentModels.New(learnerID, c.ID, nil, nil, time.Now())
	s.Require().NoError(err)
	created, _, err := enrollmentStore.NewPostgres(s.pg.DB).ClaimSeatAndEnroll(s.ctx, e)
	s.Require().NoError(err)
	return created.ID
}

func (s *PostgresCertificateSuite) certificate(enrollmentID id.EnrollmentID, code string) *models.Certificate {
	return &models.Certificate{
		ID:             id.NewCertificateID(),
		EnrollmentID:   enrollmentID,
		Code:           code,
		CompletionDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		IssuedAt:       time.Now().UTC(),
	}
}

func (s *PostgresCertificateSuite) TestCreateAndFind() {
	enrollmentID := s.seedEnrollment()
	s.Require().NoError(s.store.Create(s.ctx, s.certificate(enrollmentID, "ABCD1234")))

	byCode, err := s.store.FindByCode(s.ctx, "ABCD1234")
	s.Require().NoError(err)
	s.Equal(enrollmentID, byCode.EnrollmentID)
	s.False(byCode.HasArtifact())

	byEnrollment, err := s.store.FindByEnrollment(s.ctx, enrollmentID)
	s.Require().NoError(err)
	s.Equal("ABCD1234", byEnrollment.Code)

	many, err := s.store.FindByEnrollments(s.ctx, []id.EnrollmentID{enrollmentID, id.NewEnrollmentID()})
	s.Require().NoError(err)
	s.Len(many, 1)
	s.Contains(many, enrollmentID)

	_, err = s.store.FindByCode(s.ctx, "FFFFFFFF")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresCertificateSuite) TestUniqueness() {
	first := s.seedEnrollment()
	second := s.seedEnrollment()
	s.Require().NoError(s.store.Create(s.ctx, s.certificate(first, "ABCD1234")))

	s.ErrorIs(s.store.Create(s.ctx, s.certificate(first, "00000001")), sentinel.ErrConflict)
	s.ErrorIs(s.store.Create(s.ctx, s.certificate(second, "ABCD1234")), sentinel.ErrAlreadyUsed)
	s.ErrorIs(s.store.Create(s.ctx, s.certificate(id.NewEnrollmentID(), "00000002")), sentinel.ErrNotFound)
}

func (s *PostgresCertificateSuite) TestSetArtifactIfMissing() {
	enrollmentID := s.seedEnrollment()
	s.Require().NoError(s.store.Create(s.ctx, s.certificate(enrollmentID, "ABCD1234")))

	s.Require().NoError(s.store.SetArtifactIfMissing(s.ctx, "ABCD1234", "https://files.test/a.pdf"))
	s.ErrorIs(s.store.SetArtifactIfMissing(s.ctx, "ABCD1234", "https://files.test/b.pdf"), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.SetArtifactIfMissing(s.ctx, "FFFFFFFF", "https://files.test/c.pdf"), sentinel.ErrNotFound)

	c, err := s.store.FindByCode(s.ctx, "ABCD1234")
	s.Require().NoError(err)
	s.Require().NotNil(c.ArtifactURL)
	s.Equal("https://files.test/a.pdf", *c.ArtifactURL)
}

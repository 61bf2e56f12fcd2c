package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sparkfish/internal/catalog/models"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/sentinel"
	"sparkfish/pkg/platform/validation"
	"sparkfish/pkg/requestcontext"
)

type Store interface {
	CreateProgram(ctx context.Context, p *models.Program) error
	UpdateProgram(ctx context.Context, p *models.Program) error
	FindProgramByID(ctx context.Context, programID id.ProgramID) (*models.Program, error)
	FindProgramBySlug(ctx context.Context, slug string) (*models.Program, error)
	ListPrograms(ctx context.Context, activeOnly bool) ([]*models.Program, error)
	ProgramHasCohorts(ctx context.Context, programID id.ProgramID) (bool, error)

	CreateCohort(ctx context.Context, c *models.Cohort) error
	UpdateCohort(ctx context.Context, c *models.Cohort) error
	FindCohortByID(ctx context.Context, cohortID id.CohortID) (*models.Cohort, error)
	ListCohorts(ctx context.Context, programID *id.ProgramID) ([]*models.Cohort, error)

	CreateTrack(ctx context.Context, t *models.Track) error
	FindTrackByID(ctx context.Context, trackID id.TrackID) (*models.Track, error)
	ListTracks(ctx context.Context) ([]*models.Track, error)
}

// Service manages programs, cohorts and tracks.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateProgram(ctx context.Context, req *models.CreateProgramRequest) (*models.Program, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p := &models.Program{
		ID:            id.NewProgramID(),
		Slug:          req.Slug,
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Active:        active,
		PaymentPlanID: req.PaymentPlanID,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.CreateProgram(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "program slug is already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create program")
	}
	s.logger.InfoContext(ctx, "program created", "program_id", p.ID, "slug", p.Slug)
	return p, nil
}

// UpdateProgram applies a partial update. The slug is frozen once any cohort
// references the program.
func (s *Service) UpdateProgram(ctx context.Context, programID id.ProgramID, req *models.UpdateProgramRequest) (*models.Program, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	p, err := s.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	if req.Slug != nil && *req.Slug != p.Slug {
		referenced, err := s.store.ProgramHasCohorts(ctx, programID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check program cohorts")
		}
		if referenced {
			return nil, dErrors.Conflict(dErrors.ReasonInvalidState, "slug cannot change once cohorts exist")
		}
		p.Slug = *req.Slug
	}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "title is required")
		}
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Type != nil {
		p.Type = *req.Type
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if req.PaymentPlanID != nil {
		if *req.PaymentPlanID == "" {
			p.PaymentPlanID = nil
		} else {
			plan := *req.PaymentPlanID
			p.PaymentPlanID = &plan
		}
	}

	if err := s.store.UpdateProgram(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "program slug is already in use")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update program")
	}
	return p, nil
}

func (s *Service) GetProgram(ctx context.Context, programID id.ProgramID) (*models.Program, error) {
	p, err := s.store.FindProgramByID(ctx, programID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load program")
	}
	return p, nil
}

// ListPrograms returns every program for the admin console.
func (s *Service) ListPrograms(ctx context.Context) ([]*models.Program, error) {
	programs, err := s.store.ListPrograms(ctx, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list programs")
	}
	return programs, nil
}

func (s *Service) ListActivePrograms(ctx context.Context) ([]*models.Program, error) {
	programs, err := s.store.ListPrograms(ctx, true)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list programs")
	}
	return programs, nil
}

// GetProgramBySlug returns an active program with its active cohorts.
func (s *Service) GetProgramBySlug(ctx context.Context, slug string) (*models.ProgramDetail, error) {
	p, err := s.store.FindProgramBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load program")
	}
	if !p.Active {
		return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
	}
	cohorts, err := s.store.ListCohorts(ctx, &p.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cohorts")
	}
	views := make([]*models.CohortView, 0, len(cohorts))
	for _, c := range cohorts {
		if c.Active {
			views = append(views, models.NewCohortView(c))
		}
	}
	return &models.ProgramDetail{Program: p, Cohorts: views}, nil
}

func (s *Service) CreateCohort(ctx context.Context, req *models.CreateCohortRequest) (*models.Cohort, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	programID, err := id.ParseProgramID(req.ProgramID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "program_id must be a valid id")
	}
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "start_date must be YYYY-MM-DD")
	}

	c, err := models.NewCohort(id.NewCohortID(), programID, req.Title, start, req.SeatLimit)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	c.ScheduleText = req.ScheduleText
	c.MeetingURL = req.MeetingURL
	c.CreatedAt = requestcontext.Now(ctx)

	if err := s.store.CreateCohort(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create cohort")
	}
	s.logger.InfoContext(ctx, "cohort created", "cohort_id", c.ID, "program_id", programID, "seat_limit", c.SeatLimit)
	return c, nil
}

// UpdateCohort applies a partial update. Seats taken are never edited here
// and the limit may not drop below them.
func (s *Service) UpdateCohort(ctx context.Context, cohortID id.CohortID, req *models.UpdateCohortRequest) (*models.Cohort, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	c, err := s.GetCohort(ctx, cohortID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.StartDate != nil {
		start, err := time.Parse(time.DateOnly, *req.StartDate)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "start_date must be YYYY-MM-DD")
		}
		c.StartDate = start
	}
	if req.ScheduleText != nil {
		c.ScheduleText = *req.ScheduleText
	}
	if req.SeatLimit != nil {
		if *req.SeatLimit < c.SeatsTaken {
			return nil, dErrors.Conflict(dErrors.ReasonInvalidState, "seat limit cannot drop below seats already taken")
		}
		c.SeatLimit = *req.SeatLimit
	}
	if req.MeetingURL != nil {
		c.MeetingURL = *req.MeetingURL
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := s.store.UpdateCohort(ctx, c); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "cohort not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Conflict(dErrors.ReasonInvalidState, "seat limit cannot drop below seats already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update cohort")
	}
	return s.GetCohort(ctx, cohortID)
}

func (s *Service) GetCohort(ctx context.Context, cohortID id.CohortID) (*models.Cohort, error) {
	c, err := s.store.FindCohortByID(ctx, cohortID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "cohort not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load cohort")
	}
	return c, nil
}

// CohortWithProgram loads a cohort and the program it belongs to.
func (s *Service) CohortWithProgram(ctx context.Context, cohortID id.CohortID) (*models.Cohort, *models.Program, error) {
	c, err := s.GetCohort(ctx, cohortID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.GetProgram(ctx, c.ProgramID)
	if err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

func (s *Service) ListCohorts(ctx context.Context, programID *id.ProgramID) ([]*models.Cohort, error) {
	cohorts, err := s.store.ListCohorts(ctx, programID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cohorts")
	}
	return cohorts, nil
}

func (s *Service) CreateTrack(ctx context.Context, req *models.CreateTrackRequest) (*models.Track, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	t := &models.Track{ID: id.NewTrackID(), Slug: req.Slug, Title: req.Title, Description: req.Description}
	if err := s.store.CreateTrack(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "track slug is already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create track")
	}
	return t, nil
}

func (s *Service) GetTrack(ctx context.Context, trackID id.TrackID) (*models.Track, error) {
	t, err := s.store.FindTrackByID(ctx, trackID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "track not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load track")
	}
	return t, nil
}

func (s *Service) ListTracks(ctx context.Context) ([]*models.Track, error) {
	tracks, err := s.store.ListTracks(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tracks")
	}
	return tracks, nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"sparkfish/internal/contact/models"
	"sparkfish/internal/events"
	"sparkfish/internal/notification"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/requestcontext"
)

type fakeDispatcher struct {
	sent []notification.Inquiry
	err  error
}

func (f *fakeDispatcher) ContactInquiry(_ context.Context, in notification.Inquiry) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, in)
	return nil
}

type ContactServiceSuite struct {
	suite.Suite
	ctx        context.Context
	dispatcher *fakeDispatcher
	publisher  *events.Memory
	svc        *Service
}

func TestContactServiceSuite(t *testing.T) {
	suite.Run(t, new(ContactServiceSuite))
}

func (s *ContactServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithClientMetadata(context.Background(), "198.51.100.1",
		"Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	s.dispatcher = &fakeDispatcher{}
	s.publisher = events.NewMemory()
	s.svc = New(s.dispatcher, WithPublisher(s.publisher))
}

func validSubmission() models.Submission {
	return models.Submission{
		Name:         "  Jane Doe ",
		Email:        "jane@example.org",
		Organization: "Acme",
		Message:      "We would like a workshop.",
	}
}

func (s *ContactServiceSuite) TestSubmitSends() {
	s.Require().NoError(s.svc.Submit(s.ctx, validSubmission()))

	s.Require().Len(s.dispatcher.sent, 1)
	in := s.dispatcher.sent[0]
	s.Equal("Jane Doe", in.Name)
	s.Equal("jane@example.org", in.Email)
	s.Contains(in.SubmittedFrom, "Firefox")
	s.Contains(in.SubmittedFrom, "Linux")

	published := s.publisher.OfType(events.TypeContactReceived)
	s.Require().Len(published, 1)
	s.NotContains(string(published[0].Payload), "jane@example.org")
	s.NotContains(published[0].Key, "jane")
}

func (s *ContactServiceSuite) TestHoneypotIsAcceptedWithoutSending() {
	sub := validSubmission()
	sub.Website = "http://spam.example"

	s.Require().NoError(s.svc.Submit(s.ctx, sub))
	s.Empty(s.dispatcher.sent)
	s.Empty(s.publisher.Events())
}

func (s *ContactServiceSuite) TestHoneypotSkipsValidation() {
	s.Require().NoError(s.svc.Submit(s.ctx, models.Submission{Website: "x"}))
	s.Empty(s.dispatcher.sent)
}

func (s *ContactServiceSuite) TestValidation() {
	cases := map[string]func(*models.Submission){
		"missing name":    func(m *models.Submission) { m.Name = "   " },
		"missing email":   func(m *models.Submission) { m.Email = "" },
		"bad email":       func(m *models.Submission) { m.Email = "not-an-email" },
		"missing message": func(m *models.Submission) { m.Message = "" },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			sub := validSubmission()
			mutate(&sub)
			err := s.svc.Submit(s.ctx, sub)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
	s.Empty(s.dispatcher.sent)
}

func (s *ContactServiceSuite) TestSendFailure() {
	s.dispatcher.err = errors.New("sendgrid: 500")

	err := s.svc.Submit(s.ctx, validSubmission())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
	s.Empty(s.publisher.Events())
}

func (s *ContactServiceSuite) TestDescribeAgent() {
	s.Empty(describeAgent(""))
	s.Contains(describeAgent("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"), "bot")
}

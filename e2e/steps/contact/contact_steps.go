//go:build e2e

package contact

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	SetClientIP(ip string)
	LastStatus() int
}

// RegisterSteps registers contact form steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &contactSteps{tc: tc}

	ctx.Step(`^I am a visitor from IP "([^"]*)"$`, steps.visitorFromIP)
	ctx.Step(`^I submit the contact form as "([^"]*)" with email "([^"]*)"$`, steps.submitAs)
	ctx.Step(`^I submit the contact form (\d+) times$`, steps.submitTimes)
	ctx.Step(`^I submit the contact form with the hidden field filled$`, steps.submitSpam)
	ctx.Step(`^I submit the contact form without a message$`, steps.submitWithoutMessage)
}

type contactSteps struct {
	tc TestContext
}

func form(name, email, message string) map[string]string {
	return map[string]string{
		"name":         name,
		"email":        email,
		"organization": "Lincoln High",
		"message":      message,
	}
}

func (s *contactSteps) visitorFromIP(_ context.Context, ip string) error {
	s.tc.SetClientIP(ip)
	return nil
}

func (s *contactSteps) submitAs(_ context.Context, name, email string) error {
	return s.tc.POST("/api/contact", form(name, email, "We'd like a cohort for our staff."))
}

func (s *contactSteps) submitTimes(_ context.Context, n int) error {
	for i := range n {
		if err := s.tc.POST("/api/contact", form("Ada", "ada@example.com", "Hello")); err != nil {
			return err
		}
		if status := s.tc.LastStatus(); i < n-1 && status != 200 {
			return fmt.Errorf("submission %d returned %d", i+1, status)
		}
	}
	return nil
}

func (s *contactSteps) submitSpam(context.Context) error {
	body := form("Bot", "bot@example.com", "cheap pills")
	body["b_url"] = "https://spam.example"
	return s.tc.POST("/api/contact", body)
}

func (s *contactSteps) submitWithoutMessage(context.Context) error {
	return s.tc.POST("/api/contact", form("Ada", "ada@example.com", ""))
}

//go:build e2e

package e2e

import (
	"github.com/cucumber/godog"

	"sparkfish/e2e/steps/common"
	"sparkfish/e2e/steps/contact"
	"sparkfish/e2e/steps/webhook"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	contact.RegisterSteps(ctx, tc)
	webhook.RegisterSteps(ctx, tc)
}

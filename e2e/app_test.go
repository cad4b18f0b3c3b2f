//go:build e2e

package e2e

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite drives the running server through a real browser.
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest opens a fresh page; each page has its own cookie jar.
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login(username, password string) {
	err := suite.expect.Locator(suite.page.Locator("#login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	require.NoError(suite.T(), suite.page.Locator("input[name=username]").Fill(username), "failed to fill username")
	require.NoError(suite.T(), suite.page.Locator("input[name=password]").Fill(password), "failed to fill password")
	require.NoError(suite.T(), suite.page.Locator("#login-form button[type=submit]").Click(), "failed to click login")
}

func (suite *E2ETestSuite) goTo(path string) {
	_, err := suite.page.Goto(appURL + path)
	require.NoError(suite.T(), err, "could not navigate to %s", path)
}

func (suite *E2ETestSuite) TestLoginRedirectsToRequestedPage() {
	suite.goTo("/budget")
	err := suite.expect.Page(suite.page).ToHaveURL(regexp.MustCompile(`/login\?next=%2Fbudget$`))
	require.NoError(suite.T(), err, "anonymous visit should land on login with next")

	suite.login(adminUser, adminPassword)

	err = suite.expect.Page(suite.page).ToHaveURL(regexp.MustCompile(`/budget$`))
	require.NoError(suite.T(), err, "login should return to the requested page")
}

func (suite *E2ETestSuite) TestTransactionFlow() {
	suite.login(adminUser, adminPassword)

	err := suite.expect.Locator(suite.page.Locator("h1")).ToHaveText("Dashboard")
	require.NoError(suite.T(), err, "did not reach dashboard after login")

	suite.goTo("/transactions")
	require.NoError(suite.T(), suite.page.Locator("#description").Fill("Lunch Test"))
	require.NoError(suite.T(), suite.page.Locator("#amount").Fill("12.50"))
	require.NoError(suite.T(), suite.page.Locator("#category").Fill("Food"))
	require.NoError(suite.T(), suite.page.Locator("#transaction-form button[type=submit]").Click())

	err = suite.expect.Locator(suite.page.Locator("#transactions-list")).ToContainText("Lunch Test (Food)")
	require.NoError(suite.T(), err, "transaction not listed")

	err = suite.expect.Locator(suite.page.Locator("#category-summary-list")).ToContainText("Food")
	require.NoError(suite.T(), err, "summary not refreshed")

	suite.goTo("/dashboard")
	err = suite.expect.Locator(suite.page.Locator("#category-summary-list")).ToContainText("12.50")
	require.NoError(suite.T(), err, "dashboard summary mismatch")
}

func (suite *E2ETestSuite) TestRejectsMissingAmount() {
	suite.login(adminUser, adminPassword)
	suite.goTo("/transactions")

	// Bypass the browser's required-field check to exercise server validation
	_, err := suite.page.Evaluate(`document.getElementById('amount').removeAttribute('required')`)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.page.Locator("#description").Fill("No amount"))
	require.NoError(suite.T(), suite.page.Locator("#transaction-form button[type=submit]").Click())

	err = suite.expect.Locator(suite.page.Locator("#form-error")).ToHaveText("Amount must be a number.")
	require.NoError(suite.T(), err, "validation error not shown")
}

func (suite *E2ETestSuite) TestBudgetUpsertAndDelete() {
	suite.login(adminUser, adminPassword)
	suite.goTo("/budget")

	category := fmt.Sprintf("Travel-%d", time.Now().UnixNano())
	items := suite.page.Locator("#budgets-list li", playwright.PageLocatorOptions{HasText: category})

	for _, amount := range []string{"100", "150"} {
		require.NoError(suite.T(), suite.page.Locator("#budget-category").Fill(category))
		require.NoError(suite.T(), suite.page.Locator("#budget-amount").Fill(amount))
		require.NoError(suite.T(), suite.page.Locator("#budget-form button[type=submit]").Click())

		err := suite.expect.Locator(items).ToContainText(amount + ".00")
		require.NoError(suite.T(), err, "budget %s not shown", amount)
	}

	err := suite.expect.Locator(items).ToHaveCount(1)
	require.NoError(suite.T(), err, "upsert must keep a single row")

	require.NoError(suite.T(), items.Locator(".delete-budget").Click())
	err = suite.expect.Locator(items).ToHaveCount(0)
	require.NoError(suite.T(), err, "budget not deleted")
}

func (suite *E2ETestSuite) TestRegisterAndLogout() {
	username := fmt.Sprintf("user%d", time.Now().UnixNano())

	suite.goTo("/register")
	require.NoError(suite.T(), suite.page.Locator("input[name=username]").Fill(username))
	require.NoError(suite.T(), suite.page.Locator("input[name=password]").Fill("pw1"))
	require.NoError(suite.T(), suite.page.Locator("#register-form button[type=submit]").Click())

	err := suite.expect.Locator(suite.page.Locator(".flash")).ToHaveText("Registration successful! Please log in.")
	require.NoError(suite.T(), err, "registration flash missing")

	suite.login(username, "pw1")
	err = suite.expect.Locator(suite.page.Locator(".empty")).ToBeVisible()
	require.NoError(suite.T(), err, "new account should have an empty dashboard")

	require.NoError(suite.T(), suite.page.Locator("#logout-link").Click())
	err = suite.expect.Locator(suite.page.Locator(".flash")).ToHaveText("You have been logged out.")
	require.NoError(suite.T(), err, "logout flash missing")
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}

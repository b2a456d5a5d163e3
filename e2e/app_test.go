package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage(playwright.BrowserNewPageOptions{
		AcceptDownloads: playwright.Bool(true),
	})
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login(email, password string) {
	// Wait for login form
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	// Fill in credentials
	err = suite.page.Locator(".login-form input[name=email]").Fill(email)
	require.NoError(suite.T(), err, "failed to fill email")

	err = suite.page.Locator(".login-form input[name=password]").Fill(password)
	require.NoError(suite.T(), err, "failed to fill password")

	// Submit login
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	// Wait for redirect to dashboard
	err = suite.expect.Locator(suite.page.Locator(".dashboard-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not redirect to dashboard after login")
}

func (suite *E2ETestSuite) addExpense(amount, category string) {
	err := suite.page.Locator("#expense-form input[name=amount]").Fill(amount)
	require.NoError(suite.T(), err, "failed to fill amount")

	err = suite.page.Locator("#expense-form input[name=category]").Fill(category)
	require.NoError(suite.T(), err, "failed to fill category")

	err = suite.page.Locator("#expense-form button.submit").Click()
	require.NoError(suite.T(), err, "failed to submit expense")
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	suite.login("testuser@example.com", "testpass123")

	// Add two expenses
	suite.addExpense("10", "food")
	err := suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(1)
	require.NoError(suite.T(), err, "expense item count mismatch")

	suite.addExpense("20", "transport")
	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(2)
	require.NoError(suite.T(), err, "expense item count mismatch")

	err = suite.expect.Locator(suite.page.Locator("#total")).ToHaveText("30.00")
	require.NoError(suite.T(), err, "total mismatch")

	// Edit the first expense
	err = suite.page.Locator(".expense-item").First().Locator(".edit-link").Click()
	require.NoError(suite.T(), err, "failed to open edit form")

	err = suite.page.Locator("#edit-form input[name=amount]").Fill("12.50")
	require.NoError(suite.T(), err, "failed to fill amount")

	err = suite.page.Locator("#edit-form button.submit").Click()
	require.NoError(suite.T(), err, "failed to submit edit")

	item := suite.page.Locator(".expense-item").First()
	err = suite.expect.Locator(item.Locator(".expense-amount")).ToHaveText("12.50")
	require.NoError(suite.T(), err, "amount mismatch after edit")

	err = suite.expect.Locator(suite.page.Locator("#total")).ToHaveText("32.50")
	require.NoError(suite.T(), err, "total mismatch after edit")

	// Download the report
	download, err := suite.page.ExpectDownload(func() error {
		return suite.page.Locator(".download-btn").Click()
	})
	require.NoError(suite.T(), err, "download did not start")
	require.Equal(suite.T(), "expense_report.pdf", download.SuggestedFilename())

	// Delete the second expense
	err = suite.page.Locator(".expense-item").Last().Locator(".delete-link").Click()
	require.NoError(suite.T(), err, "failed to delete expense")

	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(1)
	require.NoError(suite.T(), err, "expense not deleted")

	// Logout returns to the login page
	err = suite.page.Locator(".logout-btn").Click()
	require.NoError(suite.T(), err, "failed to logout")

	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible after logout")
}

func (suite *E2ETestSuite) TestInvalidLogin() {
	err := suite.page.Locator(".login-form input[name=email]").Fill("testuser@example.com")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".login-form input[name=password]").Fill("wrong")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator("body")).ToHaveText("Invalid Email or Password")
	require.NoError(suite.T(), err, "failure message not shown")
}

func (suite *E2ETestSuite) TestRegisterNewUser() {
	err := suite.page.Locator(".register-form input[name=name]").Fill("New User")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".register-form input[name=email]").Fill("new@example.com")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".register-form input[name=password]").Fill("newpass")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".register-btn").Click()
	require.NoError(suite.T(), err)

	suite.login("new@example.com", "newpass")

	err = suite.expect.Locator(suite.page.Locator(".summary h1")).ToHaveText("Welcome, New User")
	require.NoError(suite.T(), err)
	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(0)
	require.NoError(suite.T(), err, "new user should start with no expenses")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}

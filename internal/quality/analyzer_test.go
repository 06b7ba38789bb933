package quality

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeStep(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func analyze(t *testing.T, dir, lang string) Result {
	t.Helper()
	a := NewAnalyzer(zap.NewNop(), nil)
	res, err := a.AnalyzeDir(context.Background(), dir, lang)
	require.NoError(t, err)
	return res
}

func findingKinds(res Result) []DefectKind {
	var kinds []DefectKind
	for _, f := range res.Details {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

const pythonSteps = `from behave import given, when, then

@given("a user exists")
def step_user(context):
    context.user = make_user(context)

@when("they log in")
def step_login(context):
    context.session = login(context.user)

@then("access is granted")
def step_granted(context):
    assert context.session.active
`

func TestPythonCleanSteps(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.py", pythonSteps)

	res := analyze(t, dir, "python")
	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, 3, res.TotalSteps)
	assert.Equal(t, 3, res.QualityPass)
	assert.Empty(t, res.Details)
	assert.Empty(t, res.ParserNote)
}

func TestPythonEmptyBody(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.py", `from behave import then

@then("access is granted")
def step_granted(context):
    pass
`)

	res := analyze(t, dir, "python")
	assert.Equal(t, StatusBlocked, res.Status)
	require.Len(t, res.Details, 1)
	f := res.Details[0]
	assert.Equal(t, KindEmptyBody, f.Kind)
	assert.Equal(t, SeverityFail, f.Severity)
	assert.Equal(t, "access is granted", f.Step)
}

func TestPythonDocstringOnlyIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.py", `from behave import then

@then("totals are recorded")
def step_totals(context):
    """Will verify the totals eventually."""
`)

	res := analyze(t, dir, "python")
	assert.Equal(t, []DefectKind{KindEmptyBody}, findingKinds(res))
}

func TestPythonTautology(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.py", `from behave import then

@then("access is granted")
def step_granted(context):
    assert True
`)

	res := analyze(t, dir, "python")
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, []DefectKind{KindTautology}, findingKinds(res))
}

func TestPythonNoAssertionThenOnly(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.py", `from behave import when, then

@when("totals are computed")
def step_compute(context):
    context.total = compute(context)

@then("totals are correct")
def step_totals(context):
    total = compute(context)
    print(total)
`)

	res := analyze(t, dir, "python")
	// The when-step has no assertion either, but NO_ASSERTION applies only
	// to then-classified bindings.
	assert.Equal(t, []DefectKind{KindNoAssertion}, findingKinds(res))
	assert.Equal(t, 1, res.QualityPass)
}

func TestPythonRaiseCountsAsVerification(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.py", `from behave import then

@then("the import is rejected")
def step_rejected(context):
    if context.accepted:
        raise AssertionError("import was accepted")
`)

	res := analyze(t, dir, "python")
	assert.Equal(t, StatusPass, res.Status)
}

func TestPythonParseErrorWarnsAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "a_broken.py", "def broken(:\n")
	writeStep(t, dir, "b_good.py", `from behave import then

@then("access is granted")
def step_granted(context):
    assert context.granted
`)

	res := analyze(t, dir, "python")
	assert.Equal(t, StatusPass, res.Status) // PARSE_ERROR is WARN, never blocks
	require.Len(t, res.Details, 1)
	assert.Equal(t, KindParseError, res.Details[0].Kind)
	assert.Equal(t, SeverityWarn, res.Details[0].Severity)
	assert.Equal(t, 1, res.TotalSteps)
	assert.Equal(t, 1, res.QualityPass)
}

func TestClassifyPrecedenceEmptyBeatsTautology(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	// An unreachable tautological assertion after a placeholder must not
	// reclassify an empty body.
	b := Binding{
		Kind:      StepThen,
		Label:     "access is granted",
		Body:      "pass\nassert True",
		StmtCount: 0,
	}
	f := a.Classify(b)
	require.NotNil(t, f)
	assert.Equal(t, KindEmptyBody, f.Kind)
}

func TestClassifyMixedAssertionsNotTautology(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	b := Binding{
		Kind:      StepThen,
		Body:      "assert True\nassert user.active",
		StmtCount: 2,
	}
	assert.Nil(t, a.Classify(b))
}

func TestJavaScriptSteps(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.js", `const { Given, Then } = require('@cucumber/cucumber');
const assert = require('assert');

Given('a user exists', function () {
  this.user = makeUser();
});

Then('access is granted', function () {
  assert.ok(this.session.active);
});

Then('nothing is verified', function () {
});

Then('truth is truth', function () {
  expect(true).toBe(true);
});
`)

	res := analyze(t, dir, "javascript")
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, 4, res.TotalSteps)
	assert.ElementsMatch(t, []DefectKind{KindEmptyBody, KindTautology}, findingKinds(res))
}

func TestGoSteps(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps_test.go", `package main

import "github.com/cucumber/godog"

func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`+"`"+`^a user exists$`+"`"+`, aUserExists)
	ctx.Step(`+"`"+`^access is granted$`+"`"+`, accessIsGranted)
}

func aUserExists() error {
	users.Add("alice")
	return nil
}

func accessIsGranted() error {
	return nil
}
`)

	res := analyze(t, dir, "go")
	assert.Equal(t, 2, res.TotalSteps)
	require.Len(t, res.Details, 1)
	assert.Equal(t, KindEmptyBody, res.Details[0].Kind)
	assert.Equal(t, "^access is granted$", res.Details[0].Step)
}

func TestRubyHeuristicTier(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.rb", `Given('a user exists') do
  @user = create_user
end

Then('access is granted') do
end
`)

	res := analyze(t, dir, "ruby")
	assert.NotEmpty(t, res.ParserNote)
	assert.Equal(t, 2, res.TotalSteps)
	assert.Equal(t, []DefectKind{KindEmptyBody}, findingKinds(res))
}

func TestJavaHeuristicTier(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "StepDefs.java", `public class StepDefs {
    @Given("a user exists")
    public void aUserExists() {
        user = new User("alice");
    }

    @Then("access is granted")
    public void accessIsGranted() {
        assertTrue(true);
    }
}
`)

	res := analyze(t, dir, "java")
	assert.NotEmpty(t, res.ParserNote)
	assert.Equal(t, []DefectKind{KindTautology}, findingKinds(res))
}

func TestCSharpHeuristicTier(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "Steps.cs", `public class Steps
{
    [Given(@"a user exists")]
    public void GivenAUserExists()
    {
        _user = new User();
    }

    [Then(@"access is granted")]
    public void ThenAccessIsGranted()
    {
    }
}
`)

	res := analyze(t, dir, "csharp")
	assert.Equal(t, 2, res.TotalSteps)
	assert.Equal(t, []DefectKind{KindEmptyBody}, findingKinds(res))
}

func TestUnknownLanguageStillScans(t *testing.T) {
	dir := t.TempDir()
	writeStep(t, dir, "steps.java", `public class X {
    @Then("it works")
    public void itWorks() {
    }
}
`)

	res := analyze(t, dir, "kotlin")
	assert.NotEmpty(t, res.ParserNote)
	assert.Equal(t, []DefectKind{KindEmptyBody}, findingKinds(res))
}

func TestTautologyShapes(t *testing.T) {
	taut := []string{
		"assert True",
		"assert true",
		"assert not False",
		"assert 1",
		"assert 1 == 1",
		"assert (True)",
		`assert True, "always fine"`,
		"assertTrue(true);",
		"Assert.True(true);",
		"expect(true).toBe(true);",
		"expect(true).to.be.true;",
	}
	for _, line := range taut {
		assert.True(t, isTautologicalAssertion(line), "expected tautology: %q", line)
	}

	real := []string{
		"assert user.active",
		"assert total == 3",
		"assert 1 == count",
		"assertTrue(session.isActive());",
		"expect(total).toBe(3);",
		"Assert.True(result.Ok);",
	}
	for _, line := range real {
		assert.False(t, isTautologicalAssertion(line), "unexpected tautology: %q", line)
	}
}

package generator

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

func sampleActions() []workflow.Action {
	return []workflow.Action{
		{TimestampMS: 0, Kind: workflow.ActionNavigate, URL: "https://example.com/login", Description: "Open the login page"},
		{TimestampMS: 1000, Kind: workflow.ActionType, Target: &workflow.TargetElement{Type: "input", Selector: "#email", Location: &workflow.Location{X: 40, Y: 80}}, InputValue: "user@example.com", Description: "Enter email"},
		{TimestampMS: 2000, Kind: workflow.ActionUnknown, Description: "Switch to desktop app"},
		{TimestampMS: 3000, Kind: workflow.ActionClick, Target: &workflow.TargetElement{Type: "button", Text: "Sign in", Selector: "button.submit", Location: &workflow.Location{X: 10, Y: 20}}, Description: "Click sign in"},
		{TimestampMS: 4000, Kind: workflow.ActionScroll, Description: "Scroll down"},
		{TimestampMS: 5000, Kind: workflow.ActionSelect, Description: "Pick a country"},
		{TimestampMS: 6000, Kind: workflow.ActionError, Description: "Analysis failed: timeout"},
	}
}

var manualEntry = regexp.MustCompile(`(?m)^\d+\. `)

func render(t *testing.T, opts Options, actions []workflow.Action, format Format) string {
	t.Helper()
	out, err := New(opts, nil).Render(actions, "login", format)
	require.NoError(t, err)
	return out
}

func TestRenderBlockCounts(t *testing.T) {
	actions := sampleActions()

	assert.Equal(t, len(actions), strings.Count(render(t, Options{}, actions, FormatPlaywright), "// Step "))
	assert.Equal(t, len(actions), strings.Count(render(t, Options{}, actions, FormatSelenium), "# Step "))
	assert.Len(t, manualEntry.FindAllString(render(t, Options{}, actions, FormatManual), -1), len(actions))

	var doc mcpWorkflow
	require.NoError(t, yaml.Unmarshal([]byte(render(t, Options{}, actions, FormatWindowsMCP)), &doc))
	assert.Len(t, doc.Steps, len(actions))
}

func TestRenderWebOnly(t *testing.T) {
	actions := sampleActions()
	opts := Options{WebOnly: true}

	for _, tc := range []struct {
		format  Format
		header  string
		trailer string
	}{
		{FormatPlaywright, "// Step ", "// 2 desktop operation(s) skipped (web_only mode)"},
		{FormatSelenium, "# Step ", "# 2 desktop operation(s) skipped (web_only mode)"},
	} {
		t.Run(string(tc.format), func(t *testing.T) {
			out := render(t, opts, actions, tc.format)
			assert.Equal(t, len(actions)-2, strings.Count(out, tc.header))
			assert.Equal(t, 1, strings.Count(out, "skipped (web_only mode)"))
			assert.True(t, strings.HasSuffix(out, tc.trailer+"\n"))
			assert.NotContains(t, out, "Switch to desktop app")
			assert.Contains(t, out, tc.header+"4: Click sign in")
		})
	}

	t.Run("desktop and manual keep everything", func(t *testing.T) {
		assert.Len(t, manualEntry.FindAllString(render(t, opts, actions, FormatManual), -1), len(actions))

		var doc mcpWorkflow
		require.NoError(t, yaml.Unmarshal([]byte(render(t, opts, actions, FormatWindowsMCP)), &doc))
		assert.Len(t, doc.Steps, len(actions))
	})

	t.Run("zero skipped still reports", func(t *testing.T) {
		out := render(t, opts, actions[:2], FormatPlaywright)
		assert.Contains(t, out, "// 0 desktop operation(s) skipped (web_only mode)")
	})

	t.Run("off by default", func(t *testing.T) {
		assert.NotContains(t, render(t, Options{}, actions, FormatPlaywright), "web_only")
	})
}

func TestRenderPlaywright(t *testing.T) {
	out := render(t, Options{}, sampleActions(), FormatPlaywright)

	assert.Contains(t, out, "const { chromium } = require('playwright');")
	assert.Contains(t, out, "    await page.goto(`https://example.com/login`);\n    await page.waitForTimeout(2000);")
	assert.Contains(t, out, "    await page.fill(`#email`, `user@example.com`);\n    await page.waitForTimeout(1000);")
	assert.Contains(t, out, "    await page.click(`button.submit`);")
	assert.Contains(t, out, "    await page.evaluate(() => window.scrollBy(0, 500));")
	assert.Contains(t, out, "    // Step 6: Pick a country\n    await page.waitForTimeout(1000);")
	assert.True(t, strings.HasSuffix(out, "  } finally {\n    await browser.close();\n  }\n})();\n"))
}

func TestRenderSelenium(t *testing.T) {
	out := render(t, Options{}, sampleActions(), FormatSelenium)

	assert.Contains(t, out, "from selenium.webdriver.common.by import By")
	assert.Contains(t, out, `        driver.get("https://example.com/login")`+"\n        time.sleep(2)")
	assert.Contains(t, out, `        driver.find_element(By.CSS_SELECTOR, "#email").send_keys("user@example.com")`)
	assert.Contains(t, out, `        driver.find_element(By.CSS_SELECTOR, "button.submit").click()`)
	assert.Contains(t, out, `        driver.execute_script("window.scrollBy(0, 500)")`)
	assert.Contains(t, out, "        time.sleep(1)")
	assert.Contains(t, out, "driver.quit()")
}

func TestRenderQuotedSelectors(t *testing.T) {
	actions := []workflow.Action{{
		Kind:        workflow.ActionType,
		Target:      &workflow.TargetElement{Selector: `input[name="it's"]` + " `${x}`"},
		InputValue:  `say "hi" \ bye`,
		Description: "Fill the field",
	}}

	pw := render(t, Options{}, actions, FormatPlaywright)
	assert.Contains(t, pw, "await page.fill(`input[name=\"it's\"] \\`\\${x}\\``, `say \"hi\" \\\\ bye`);")

	py := render(t, Options{}, actions, FormatSelenium)
	assert.Contains(t, py, `find_element(By.CSS_SELECTOR, "input[name=\"it's\"] `+"`${x}`"+`").send_keys("say \"hi\" \\ bye")`)
}

func TestRenderMissingTargets(t *testing.T) {
	actions := []workflow.Action{
		{Kind: workflow.ActionClick, Target: &workflow.TargetElement{Text: "Save"}, Description: "Click save"},
		{Kind: workflow.ActionNavigate, Description: "Go somewhere"},
	}

	pw := render(t, Options{}, actions, FormatPlaywright)
	assert.Contains(t, pw, `// No selector detected for click target ("Save"); locate it manually`)
	assert.Contains(t, pw, "// No URL detected for navigation")
	assert.NotContains(t, pw, "page.click(")
	assert.NotContains(t, pw, "page.goto(")

	py := render(t, Options{}, actions, FormatSelenium)
	assert.Contains(t, py, "# No selector detected for click target")
	assert.NotContains(t, py, "driver.get(")

	mcp := render(t, Options{}, actions, FormatWindowsMCP)
	assert.Contains(t, mcp, `No screen coordinates detected for "Save"`)
}

func TestRenderWindowsMCP(t *testing.T) {
	actions := sampleActions()
	actions[0].URL = "https://example.com/?q=it's"
	out := render(t, Options{}, actions, FormatWindowsMCP)

	assert.Contains(t, out, "# Step 1: Open the login page")
	assert.Contains(t, out, "# Step 7: Analysis failed: timeout")

	var doc mcpWorkflow
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "login", doc.Workflow)

	nav := doc.Steps[0]
	assert.Equal(t, "Powershell-Tool", nav.Tool)
	assert.Equal(t, "Start-Process 'https://example.com/?q=it''s'", nav.Params["command"])
	assert.Equal(t, 2000, nav.WaitMS)

	typed := doc.Steps[1]
	assert.Equal(t, "Type-Tool", typed.Tool)
	assert.Equal(t, []any{40, 80}, typed.Params["loc"])
	assert.Equal(t, "user@example.com", typed.Params["text"])

	unknown := doc.Steps[2]
	assert.Empty(t, unknown.Tool)
	assert.Equal(t, "Switch to desktop app", unknown.Description)
	assert.Equal(t, 1000, unknown.WaitMS)

	click := doc.Steps[3]
	assert.Equal(t, "Click-Tool", click.Tool)
	assert.Equal(t, []any{10, 20}, click.Params["loc"])
	assert.Equal(t, "left", click.Params["button"])

	scroll := doc.Steps[4]
	assert.Equal(t, "Scroll-Tool", scroll.Tool)
	assert.Equal(t, "down", scroll.Params["direction"])
	assert.Equal(t, 5, scroll.Params["wheel_times"])
}

func TestRenderManual(t *testing.T) {
	actions := []workflow.Action{
		{Kind: workflow.ActionType, InputValue: "hello", Description: "Type greeting"},
		{Kind: workflow.ActionNavigate, URL: "https://example.com", Description: "Open site"},
		{Kind: workflow.ActionClick, Description: "Click"},
	}
	out := render(t, Options{}, actions, FormatManual)

	assert.Equal(t, "# login\n\n"+
		"1. Type greeting\n"+
		"   Input: hello\n"+
		"2. Open site\n"+
		"   URL: https://example.com\n"+
		"3. Click\n", out)
}

func TestManualInputWithoutURL(t *testing.T) {
	out := render(t, Options{}, []workflow.Action{{Kind: workflow.ActionType, InputValue: "secret", Description: "Type password"}}, FormatManual)
	assert.Contains(t, out, "   Input: secret")
	assert.NotContains(t, out, "URL:")
}

func TestRenderIsDeterministic(t *testing.T) {
	g := New(Options{WebOnly: true}, nil)
	for _, f := range AllFormats() {
		a, err := g.Render(sampleActions(), "wf", f)
		require.NoError(t, err)
		b, err := g.Render(sampleActions(), "wf", f)
		require.NoError(t, err)
		assert.Equal(t, a, b, f)
	}
}

func TestRenderDefaultsName(t *testing.T) {
	out, err := New(Options{}, nil).Render(nil, "", FormatManual)
	require.NoError(t, err)
	assert.Equal(t, "# workflow\n\n", out)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := New(Options{}, nil).Render(sampleActions(), "wf", Format("cypress"))
	assert.Error(t, err)
}

type stubValidator struct {
	err   error
	calls int
}

func (s *stubValidator) Validate(context.Context, Format, string) error {
	s.calls++
	return s.err
}

func TestGenerateValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("failure becomes a warning", func(t *testing.T) {
		v := &stubValidator{err: errors.New("unexpected token")}
		script, err := New(Options{ValidateSyntax: true}, v).Generate(ctx, sampleActions(), "wf", FormatPlaywright)
		require.NoError(t, err)
		assert.Equal(t, FormatPlaywright, script.Format)
		assert.NotEmpty(t, script.Content)
		assert.Equal(t, []string{"unexpected token"}, script.Warnings)
	})

	t.Run("disabled skips the validator", func(t *testing.T) {
		v := &stubValidator{err: errors.New("boom")}
		script, err := New(Options{}, v).Generate(ctx, sampleActions(), "wf", FormatSelenium)
		require.NoError(t, err)
		assert.Empty(t, script.Warnings)
		assert.Zero(t, v.calls)
	})

	t.Run("nil validator", func(t *testing.T) {
		script, err := New(Options{ValidateSyntax: true}, nil).Generate(ctx, sampleActions(), "wf", FormatManual)
		require.NoError(t, err)
		assert.Empty(t, script.Warnings)
	})
}

func TestGenerateAll(t *testing.T) {
	v := &stubValidator{}
	scripts, err := New(Options{ValidateSyntax: true}, v).GenerateAll(context.Background(), sampleActions(), "wf", AllFormats())
	require.NoError(t, err)
	require.Len(t, scripts, 4)
	for i, f := range AllFormats() {
		assert.Equal(t, f, scripts[i].Format)
	}
	assert.Equal(t, 4, v.calls)

	_, err = New(Options{}, nil).GenerateAll(context.Background(), nil, "wf", []Format{FormatManual, "bogus"})
	assert.Error(t, err)
}

func controlActions() []workflow.Action {
	return []workflow.Action{
		{Kind: workflow.ActionNavigate, URL: "https://example.com/\x00\x7fé😀", Description: "Open\x00 the\x7f site é😀"},
		{Kind: workflow.ActionType, Target: &workflow.TargetElement{Text: "\x01ctl", Selector: "#q\x01"}, InputValue: "a\x00b\x1bc", Description: "\x01ctl"},
		{Kind: workflow.ActionClick, Target: &workflow.TargetElement{Text: "Go\x00\x7f"}, Description: "Click Go\ufeff"},
	}
}

func TestRenderStripsControlCharactersFromComments(t *testing.T) {
	for _, webOnly := range []bool{false, true} {
		opts := Options{WebOnly: webOnly}

		mcp := render(t, opts, controlActions(), FormatWindowsMCP)
		var doc mcpWorkflow
		require.NoError(t, yaml.Unmarshal([]byte(mcp), &doc), mcp)
		require.Len(t, doc.Steps, 3)
		assert.Contains(t, mcp, "# Step 1: Open the site é😀")
		assert.Contains(t, mcp, "# Step 2: ctl")
		assert.Equal(t, "a\x00b\x1bc", doc.Steps[1].Params["text"])
		assert.NoError(t, checkYAML(mcp))

		for _, format := range []Format{FormatSelenium, FormatPlaywright, FormatManual} {
			out := render(t, opts, controlActions(), format)
			for _, line := range strings.Split(out, "\n") {
				trimmed := strings.TrimSpace(line)
				if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") || manualEntry.MatchString(line) {
					assert.Equal(t, commentText(line), strings.Join(strings.Fields(line), " "), "%s line %q", format, line)
				}
			}
		}
		assert.NotContains(t, render(t, opts, controlActions(), FormatSelenium), "\x00")
	}
}

func TestCommentText(t *testing.T) {
	assert.Equal(t, "a b c", commentText(" a\n b\t\tc "))
	assert.Equal(t, "Open the site é😀", commentText("Open\x00 the\x7f site é😀"))
	assert.Equal(t, "ctl", commentText("\x01ctl\x1b"))
	assert.Equal(t, "Click Go", commentText("Click Go\ufeff"))
	assert.Empty(t, commentText("\x00\x01"))
}

package generator

import (
	"fmt"
	"strings"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

const (
	navigateWaitMS = 2000
	defaultWaitMS  = 1000
	scrollPixels   = 500
)

func waitFor(kind workflow.ActionKind) int {
	if kind == workflow.ActionNavigate {
		return navigateWaitMS
	}
	return defaultWaitMS
}

// stepRenderer returns the instruction lines for one action. A kind without a
// renderer gets no instruction, only its header and wait.
type stepRenderer func(a workflow.Action) []string

// dialect is the surface syntax of one browser automation format
type dialect struct {
	comment  string
	indent   string
	prologue func(name string) []string
	epilogue []string
	wait     func(ms int) string
	steps    map[workflow.ActionKind]stepRenderer
}

func (d *dialect) render(actions []workflow.Action, name string, webOnly bool) string {
	lines := d.prologue(name)
	skipped := 0
	for i, a := range actions {
		if webOnly && !a.Kind.IsBrowserAutomatable() {
			skipped++
			continue
		}
		lines = append(lines, fmt.Sprintf("%s%s Step %d: %s", d.indent, d.comment, i+1, stepTitle(a)))
		if r, ok := d.steps[a.Kind]; ok {
			for _, l := range r(a) {
				lines = append(lines, d.indent+l)
			}
		}
		lines = append(lines, d.indent+d.wait(waitFor(a.Kind)), "")
	}
	lines = append(lines, d.epilogue...)
	if webOnly {
		lines = append(lines, fmt.Sprintf("%s %d desktop operation(s) skipped (web_only mode)", d.comment, skipped))
	}
	return strings.Join(lines, "\n") + "\n"
}

func stepTitle(a workflow.Action) string {
	if title := commentText(a.Description); title != "" {
		return title
	}
	return string(a.Kind)
}

func missingSelector(comment string, a workflow.Action) []string {
	label := ""
	if a.Target != nil && a.Target.Text != "" {
		label = fmt.Sprintf(" (%q)", commentText(a.Target.Text))
	}
	return []string{fmt.Sprintf("%s No selector detected for %s target%s; locate it manually", comment, a.Kind, label)}
}

func missingURL(comment string) []string {
	return []string{comment + " No URL detected for navigation"}
}

var playwright = &dialect{
	comment: "//",
	indent:  "    ",
	prologue: func(name string) []string {
		return []string{
			"// Workflow: " + commentText(name),
			"// Generated by video-analyzer",
			"const { chromium } = require('playwright');",
			"",
			"(async () => {",
			"  const browser = await chromium.launch({ headless: false });",
			"  const page = await browser.newPage();",
			"",
			"  try {",
		}
	},
	epilogue: []string{
		"  } finally {",
		"    await browser.close();",
		"  }",
		"})();",
	},
	wait: func(ms int) string {
		return fmt.Sprintf("await page.waitForTimeout(%d);", ms)
	},
	steps: map[workflow.ActionKind]stepRenderer{
		workflow.ActionNavigate: func(a workflow.Action) []string {
			if a.URL == "" {
				return missingURL("//")
			}
			return []string{fmt.Sprintf("await page.goto(%s);", jsLiteral(a.URL))}
		},
		workflow.ActionClick: func(a workflow.Action) []string {
			if !a.Target.HasSelector() {
				return missingSelector("//", a)
			}
			return []string{fmt.Sprintf("await page.click(%s);", jsLiteral(a.Target.Selector))}
		},
		workflow.ActionType: func(a workflow.Action) []string {
			if !a.Target.HasSelector() {
				return missingSelector("//", a)
			}
			return []string{fmt.Sprintf("await page.fill(%s, %s);", jsLiteral(a.Target.Selector), jsLiteral(a.InputValue))}
		},
		workflow.ActionScroll: func(workflow.Action) []string {
			return []string{fmt.Sprintf("await page.evaluate(() => window.scrollBy(0, %d));", scrollPixels)}
		},
	},
}

var selenium = &dialect{
	comment: "#",
	indent:  "        ",
	prologue: func(name string) []string {
		return []string{
			"# Workflow: " + commentText(name),
			"# Generated by video-analyzer",
			"import time",
			"",
			"from selenium import webdriver",
			"from selenium.webdriver.common.by import By",
			"",
			"",
			"def run():",
			"    driver = webdriver.Chrome()",
			"    try:",
		}
	},
	epilogue: []string{
		"        pass",
		"    finally:",
		"        driver.quit()",
		"",
		"",
		`if __name__ == "__main__":`,
		"    run()",
	},
	wait: func(ms int) string {
		return fmt.Sprintf("time.sleep(%g)", float64(ms)/1000)
	},
	steps: map[workflow.ActionKind]stepRenderer{
		workflow.ActionNavigate: func(a workflow.Action) []string {
			if a.URL == "" {
				return missingURL("#")
			}
			return []string{fmt.Sprintf("driver.get(%s)", pyLiteral(a.URL))}
		},
		workflow.ActionClick: func(a workflow.Action) []string {
			if !a.Target.HasSelector() {
				return missingSelector("#", a)
			}
			return []string{fmt.Sprintf("driver.find_element(By.CSS_SELECTOR, %s).click()", pyLiteral(a.Target.Selector))}
		},
		workflow.ActionType: func(a workflow.Action) []string {
			if !a.Target.HasSelector() {
				return missingSelector("#", a)
			}
			return []string{fmt.Sprintf("driver.find_element(By.CSS_SELECTOR, %s).send_keys(%s)",
				pyLiteral(a.Target.Selector), pyLiteral(a.InputValue))}
		},
		workflow.ActionScroll: func(workflow.Action) []string {
			return []string{fmt.Sprintf(`driver.execute_script("window.scrollBy(0, %d)")`, scrollPixels)}
		},
	},
}

package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/swiftqa/translator-e2e/internal/config"
)

// Contract is the part of the translator's DOM the suite depends on but does not control.
type Contract struct {
	// InputLabel is the accessible name (label or placeholder) of the text-entry control.
	InputLabel string
	// OutputClasses is the CSS class list carried by the output region.
	OutputClasses string
}

func ContractFromConfig(t config.TargetConfig) Contract {
	return Contract{
		InputLabel:    t.InputLabel,
		OutputClasses: t.OutputClasses,
	}
}

// ClassSelector matches every element carrying the output class chain, the input wrapper included.
func (c Contract) ClassSelector() string {
	target := config.TargetConfig{OutputClasses: c.OutputClasses}
	return target.ClassSelector()
}

// RegionSelector narrows ClassSelector to div elements.
func (c Contract) RegionSelector() string {
	return "div" + c.ClassSelector()
}

// InputSelector finds the entry control by placeholder or aria-label, for engines without role queries.
func (c Contract) InputSelector() string {
	label := strconv.Quote(c.InputLabel)
	return strings.Join([]string{
		fmt.Sprintf("textarea[placeholder=%s]", label),
		fmt.Sprintf("textarea[aria-label=%s]", label),
		fmt.Sprintf("input[placeholder=%s]", label),
		fmt.Sprintf("[role=textbox][aria-label=%s]", label),
	}, ", ")
}

// outputReadyJS resolves truthy once an element with the class chain, which is
// not the entry control itself, has non-blank text.
const outputReadyJS = `(selector) => {
  const elements = Array.from(document.querySelectorAll(selector));
  return elements.some(el => {
    const isInputField = el.tagName === 'TEXTAREA' || el.getAttribute('role') === 'textbox';
    return !isInputField && !!el.textContent && el.textContent.trim().length > 0;
  });
}`

// outputTextJS returns the text of the first output region without a textarea
// descendant, or null when there is none.
const outputTextJS = `(selector) => {
  const el = Array.from(document.querySelectorAll(selector)).find(el => !el.querySelector('textarea'));
  return el ? el.textContent : null;
}`

// clearValueJS empties a form control and notifies listeners the way typing would.
const clearValueJS = `function () {
  this.value = '';
  this.dispatchEvent(new Event('input', { bubbles: true }));
  this.dispatchEvent(new Event('change', { bubbles: true }));
}`

package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const h2Open = `<h2 class="text-xl font-bold text-gray-900 mt-8 mb-3">`

func TestFragmentBoldItalicAndHeading(t *testing.T) {
	got := Fragment("**Bold** and *italic*\n\n## Heading")
	want := `<strong>Bold</strong> and <em>italic</em></p><p class="mb-4">` + h2Open + `Heading</h2>`
	assert.Equal(t, want, got)
}

func TestFragmentHeadingLevels(t *testing.T) {
	assert.Equal(t, `<h1 class="text-2xl font-bold text-gray-900 mt-8 mb-4">Title</h1>`, Fragment("# Title"))
	assert.Equal(t, h2Open+`Section</h2>`, Fragment("## Section"))
	assert.Equal(t, `<h3 class="text-lg font-semibold text-gray-900 mt-6 mb-2">Sub</h3>`, Fragment("### Sub"))
}

func TestFragmentHeadingEdgeCases(t *testing.T) {
	assert.Equal(t, "#### Too deep", Fragment("#### Too deep"))
	assert.Equal(t, "#NoSpace", Fragment("#NoSpace"))
	assert.Equal(t, " # Indented", Fragment(" # Indented"))
}

func TestFragmentHeadingWithInline(t *testing.T) {
	assert.Equal(t, h2Open+`Team <strong>Alice</strong></h2>`, Fragment("## Team **Alice**"))
}

func TestFragmentListItems(t *testing.T) {
	got := Fragment("- **Alice**: A+\n- Bob: *C*")
	want := `<li class="ml-4"><strong>Alice</strong>: A+</li>` + "\n" + `<li class="ml-4">Bob: <em>C</em></li>`
	assert.Equal(t, want, got)
}

func TestFragmentParagraphBreaks(t *testing.T) {
	assert.Equal(t, "a\nb", Fragment("a\nb"))
	assert.Equal(t, `a</p><p class="mb-4">b`, Fragment("a\n\nb"))
	assert.Equal(t, `a</p><p class="mb-4">b`, Fragment("a\n\n\n\nb"), "a run of blank lines is one break")
	assert.Equal(t, "a", Fragment("\n\na\n\n"), "leading and trailing blank lines are dropped")
	assert.Equal(t, `a</p><p class="mb-4">b`, Fragment("a\r\n\r\nb"))
	assert.Equal(t, "", Fragment(""))
}

func TestFragmentSpacesOnlyLineIsNotABreak(t *testing.T) {
	assert.Equal(t, "a\n   \nb", Fragment("a\n   \nb"))
	assert.Equal(t, "a\n\t", Fragment("a\n\t"))
}

func TestFragmentUnmatchedMarkersStayLiteral(t *testing.T) {
	assert.Equal(t, "**bold", Fragment("**bold"))
	assert.Equal(t, "a * b", Fragment("a * b"))
	assert.Equal(t, "****", Fragment("****"))
	assert.Equal(t, "**", Fragment("**"))
}

func TestFragmentNesting(t *testing.T) {
	assert.Equal(t, "<em>a <strong>b</strong> c</em>", Fragment("*a **b** c*"))
	assert.Equal(t, "<strong>a <em>b</em> c</strong>", Fragment("**a *b* c**"))
	assert.Equal(t, "<strong>*x</strong>*", Fragment("***x***"))
}

func TestFragmentEscapesText(t *testing.T) {
	got := Fragment(`<script>alert("x")</script> & **<b>**`)
	assert.NotContains(t, got, "<script>")
	assert.True(t, strings.HasPrefix(got, "&lt;script&gt;"))
	assert.Contains(t, got, "&amp;")
	assert.Contains(t, got, "<strong>&lt;b&gt;</strong>")
}

func TestHTMLWrapsParagraph(t *testing.T) {
	got := string(HTML("Hello"))
	assert.Equal(t, `<p class="mb-4">Hello</p>`, got)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, "# Hi\ntext", StripFence("```markdown\n# Hi\ntext\n```"))
	assert.Equal(t, "# Hi", StripFence("  ```\n# Hi\n```  \n"))
	assert.Equal(t, "no fence", StripFence("no fence"))
	assert.Equal(t, "```unterminated", StripFence("```unterminated"))
}

func TestHTMLStripsFence(t *testing.T) {
	got := string(HTML("```\n## Grades\n```"))
	assert.Equal(t, `<p class="mb-4">`+h2Open+`Grades</h2></p>`, got)
}

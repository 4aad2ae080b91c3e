// ABOUTME: Renders conversation history as Markdown, and Markdown as HTML via goldmark
// ABOUTME: Message text is escaped so user input never turns into markup

package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/converse/internal/conversation"
)

const timeLayout = "15:04:05"

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `#`, `\#`, `<`, `\<`, `>`, `\>`, `|`, `\|`,
)

// Markdown renders msgs as a Markdown document titled with conversationID.
func Markdown(conversationID string, msgs []conversation.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation %s\n\n", conversationID)

	if len(msgs) == 0 {
		b.WriteString("_No messages._\n")
		return b.String()
	}

	for _, m := range msgs {
		speaker := "Assistant"
		if m.IsUser {
			speaker = "User"
		}
		fmt.Fprintf(&b, "**%s** · %s", speaker, m.Timestamp.Format(timeLayout))
		if m.Intent != "" {
			fmt.Fprintf(&b, " · intent `%s`", m.Intent)
		}
		if m.Action != "" {
			fmt.Fprintf(&b, " · action `%s`", m.Action)
			if params := formatParams(m.ActionParams); params != "" {
				fmt.Fprintf(&b, " (%s)", params)
			}
		}
		b.WriteString("\n\n")

		for line := range strings.SplitSeq(m.Text, "\n") {
			fmt.Fprintf(&b, "> %s\n", markdownEscaper.Replace(line))
		}
		b.WriteString("\n")
	}

	first, last := msgs[0].Timestamp, msgs[len(msgs)-1].Timestamp
	fmt.Fprintf(&b, "---\n\n%d messages over %s.\n", len(msgs), last.Sub(first).Round(time.Second))
	return b.String()
}

func formatParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return markdownEscaper.Replace(strings.Join(parts, ", "))
}

// ToHTML converts Markdown to an HTML fragment. Raw HTML in the input is
// omitted.
func ToHTML(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	return buf.Bytes(), nil
}

var pageTmpl = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
blockquote { margin: 0 0 1rem; padding: 0.25rem 1rem; border-left: 3px solid #ccc; }
code { background: #f4f4f4; padding: 0 0.2rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// WriteHTML writes msgs to w as a standalone HTML page.
func WriteHTML(w io.Writer, conversationID string, msgs []conversation.Message) error {
	body, err := ToHTML(Markdown(conversationID, msgs))
	if err != nil {
		return err
	}
	data := struct {
		Title string
		Body  template.HTML
	}{
		Title: "Conversation " + conversationID,
		Body:  template.HTML(body),
	}
	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering transcript page: %w", err)
	}
	return nil
}

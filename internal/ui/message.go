package ui

// MessageKind selects the color of a status line message
type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageSuccess
	MessageError
	MessageLoading
)

const bullet = "⏺ "

// RenderMessage renders a one-line message. Text longer than the terminal
// width is truncated; loading messages use the spinner as prefix.
func RenderMessage(text string, kind MessageKind, theme *Theme, spinnerView string, width int) string {
	if text == "" {
		return ""
	}

	// prefix (2) and a small margin
	limit := max(width-7, 20)
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit-1]) + "…"
	}

	prefix := bullet
	style := theme.Message.Info
	switch kind {
	case MessageSuccess:
		style = theme.Message.Success
	case MessageError:
		style = theme.Message.Error
	case MessageLoading:
		style = theme.Message.Loading
		if spinnerView != "" {
			prefix = spinnerView + " "
		}
	}
	return style.Render(prefix + text)
}

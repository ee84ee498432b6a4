package grid

import "fmt"

// MessageKind selects a confirmation banner template.
type MessageKind string

const (
	MsgRowAdded      MessageKind = "rowAdded"
	MsgRowDeleted    MessageKind = "rowDeleted"
	MsgRowEdited     MessageKind = "rowEdited"
	MsgColumnAdded   MessageKind = "columnAdded"
	MsgColumnDeleted MessageKind = "columnDeleted"
	MsgColumnRenamed MessageKind = "columnRenamed"
)

// UserMessage renders the banner text for kind. An empty label falls back to
// "Row" or "Column"; unknown kinds render as "".
func UserMessage(kind MessageKind, label string, extra ...string) string {
	row := orDefault(label, "Row")
	col := orDefault(label, "Column")

	switch kind {
	case MsgRowAdded:
		return fmt.Sprintf(`"%s" has been added to the table.`, row)
	case MsgRowDeleted:
		return fmt.Sprintf(`"%s" has been deleted from the table.`, row)
	case MsgRowEdited:
		return fmt.Sprintf(`Changes to "%s" were saved successfully.`, row)
	case MsgColumnAdded:
		return fmt.Sprintf(`Column "%s" has been added.`, col)
	case MsgColumnDeleted:
		return fmt.Sprintf(`Column "%s" has been removed.`, col)
	case MsgColumnRenamed:
		if len(extra) > 0 && extra[0] != "" {
			return fmt.Sprintf(`Column "%s" has been renamed to "%s".`, col, extra[0])
		}
		return fmt.Sprintf(`Column "%s" has been renamed.`, col)
	}
	return ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

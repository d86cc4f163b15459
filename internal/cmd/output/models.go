package output

import (
	"encoding/json"
	"io"
	"slices"
	"strconv"
)

// leadingColumns are shown first when records carry them.
var leadingColumns = []string{"id", "name"}

// FormatModels renders catalog records. Records are opaque, so the table
// has one column per top-level key seen in any record; values that are not
// plain strings are shown as compact JSON.
func FormatModels(w io.Writer, models []json.RawMessage, format Format) error {
	switch format {
	case FormatJSON, FormatYAML:
		if models == nil {
			models = []json.RawMessage{}
		}
		return NewFormatter(format).Format(w, models)
	default:
		return NewFormatter(FormatTable).Format(w, ModelsToTableData(models))
	}
}

// ModelsToTableData builds a table from catalog records. Elements that are
// not JSON objects are shown in a single Value column.
func ModelsToTableData(models []json.RawMessage) Data {
	objects := make([]map[string]json.RawMessage, len(models))
	seen := map[string]bool{}
	var keys []string
	for i, m := range models {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(m, &obj); err != nil || obj == nil {
			continue
		}
		objects[i] = obj
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	keys = orderColumns(keys)

	headers := []string{"#"}
	for _, k := range keys {
		headers = append(headers, Title(k))
	}
	headers = append(headers, "Value")

	rows := make([][]string, 0, len(models))
	for i, m := range models {
		row := []string{strconv.Itoa(i + 1)}
		obj := objects[i]
		for _, k := range keys {
			row = append(row, cell(obj[k]))
		}
		if obj == nil {
			row = append(row, string(m))
		} else {
			row = append(row, "")
		}
		rows = append(rows, row)
	}

	// Drop the Value column when every element was an object.
	if !slices.ContainsFunc(objects, func(o map[string]json.RawMessage) bool { return o == nil }) {
		headers = headers[:len(headers)-1]
		for i := range rows {
			rows[i] = rows[i][:len(rows[i])-1]
		}
	}

	return Data{Headers: headers, Rows: rows}
}

func orderColumns(keys []string) []string {
	slices.Sort(keys)
	ordered := make([]string, 0, len(keys))
	for _, k := range leadingColumns {
		if slices.Contains(keys, k) {
			ordered = append(ordered, k)
		}
	}
	for _, k := range keys {
		if !slices.Contains(leadingColumns, k) {
			ordered = append(ordered, k)
		}
	}
	return ordered
}

func cell(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

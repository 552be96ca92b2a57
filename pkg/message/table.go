package message

// SlideTable is the slide type used for tabular data.
const SlideTable = "table"

// Slide is an attachment rendered below the text body.
type Slide struct {
	Type  string    `json:"type"`
	Title string    `json:"title"`
	Data  TableData `json:"data"`
}

// TableData holds column headers and rows keyed by header.
type TableData struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// NewTable builds a single table slide. Rows with keys missing from headers
// are kept as is; the renderer ignores unknown columns.
func NewTable(title string, headers []string, rows []map[string]string) []Slide {
	if rows == nil {
		rows = []map[string]string{}
	}
	return []Slide{{
		Type:  SlideTable,
		Title: title,
		Data: TableData{
			Headers: headers,
			Rows:    rows,
		},
	}}
}

package converter

// rowInput gives positional access to one raw input row by header name.
// Short rows read as empty cells.
type rowInput struct {
	index map[string]int
	row   []string
}

func newHeaderIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	return index
}

func (r rowInput) get(header string) string {
	i, ok := r.index[header]
	if !ok || i >= len(r.row) {
		return ""
	}
	return r.row[i]
}

// outputLayout is the resolved shape of the survey sheet: the header row
// plus the position of every recognized column and pass-through column.
type outputLayout struct {
	headers []string
	cols    map[Column]int
	extra   map[string]int
}

// buildLayout maps recognized input headers to survey columns in input
// order, drops the rest, then appends the computed and pass-through
// columns.
func buildLayout(inputHeaders, copyColumns []string) outputLayout {
	l := outputLayout{cols: make(map[Column]int), extra: make(map[string]int)}
	for _, h := range inputHeaders {
		col, ok := headerToColumn[h]
		if !ok {
			continue
		}
		if _, seen := l.cols[col]; seen {
			continue
		}
		l.cols[col] = len(l.headers)
		l.headers = append(l.headers, col.String())
	}
	for _, col := range computedColumns {
		l.cols[col] = len(l.headers)
		l.headers = append(l.headers, col.String())
	}
	for _, name := range copyColumns {
		l.extra[name] = len(l.headers)
		l.headers = append(l.headers, name)
	}
	return l
}

func (l outputLayout) set(row []string, col Column, value string) {
	if i, ok := l.cols[col]; ok {
		row[i] = value
	}
}

// convertRow renders one REDCap row into a survey-sheet row. The XLSForm
// type arrives already resolved, list name included, so every column is
// produced in a single pass. A converter only runs when its column is
// part of the layout; calculation, default, read_only, and pass-through
// cells are always filled.
func convertRow(in rowInput, out outputLayout, xlsType string) []string {
	row := make([]string, len(out.headers))
	name := in.get(hdrFieldName)
	for col, i := range out.cols {
		switch col {
		case ColName:
			row[i] = name
		case ColType:
			row[i] = xlsType
		case ColLabel:
			row[i] = Label(in.get(hdrLabel), name)
		case ColConstraint:
			row[i] = Constraint(in.get(hdrMin), in.get(hdrMax))
		case ColRelevant:
			row[i] = Relevant(in.get(hdrBranching))
		case ColRequired:
			row[i] = Required(in.get(hdrRequired))
		case ColHint:
			row[i] = in.get(hdrNote)
		case ColCalculation:
			row[i] = Calculation(xlsType, in.get(hdrChoices))
		case ColDefault:
			row[i] = DefaultValue(in.get(hdrAnnotation))
		case ColReadOnly:
			row[i] = ReadOnly(in.get(hdrAnnotation))
		}
	}
	for header, i := range out.extra {
		row[i] = in.get(header)
	}
	return row
}

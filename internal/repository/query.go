package repository

import "strings"

// predicates accumulates WHERE conditions and their bind arguments so
// filters compose without hand-managed placeholder counting.  Conditions
// are always literal SQL with '?' placeholders; user input only ever
// travels through args.
type predicates struct {
	where []string
	args  []any
}

// add appends one condition and its arguments.
func (p *predicates) add(cond string, args ...any) {
	p.where = append(p.where, cond)
	p.args = append(p.args, args...)
}

// contains appends (LOWER(col1) LIKE ? OR LOWER(col2) LIKE ? ...) for a
// case-insensitive substring match of term across cols.
func (p *predicates) contains(term string, cols ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	ors := make([]string, len(cols))
	for i, c := range cols {
		ors[i] = "LOWER(" + c + ") LIKE ? ESCAPE '!'"
		p.args = append(p.args, pattern)
	}
	p.where = append(p.where, "("+strings.Join(ors, " OR ")+")")
}

// sql renders the conditions joined with AND, or a tautology when empty.
func (p *predicates) sql() string {
	if len(p.where) == 0 {
		return "1=1"
	}
	return strings.Join(p.where, " AND ")
}

// with returns the accumulated args followed by extra (LIMIT/OFFSET).
func (p *predicates) with(extra ...any) []any {
	return append(append([]any{}, p.args...), extra...)
}

// escapeLike neutralises LIKE wildcards in user input using '!' as the
// escape character, which means the same thing in MySQL and SQLite.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// Page describes 1-based pagination.
type Page struct {
	Number int
	Size   int
}

// MaxPage caps page numbers so the OFFSET stays far from overflow.
const MaxPage = 10000

// normalized clamps the page number and size to sane bounds.
func (p Page) normalized(defSize int) Page {
	if p.Size <= 0 {
		p.Size = defSize
	}
	if p.Size > 100 {
		p.Size = 100
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPage {
		p.Number = MaxPage
	}
	return p
}

func (p Page) offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns how many pages of size hold total rows.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

package domain

// Post is a published article from the posts table. Content may embed
// HTML; rendering is the caller's concern.
type Post struct {
	Date    string // YYYY-MM-DD HH:MM, UTC+8
	Title   string
	Content string
	Images  []string
}

// PostPreview is the locked teaser shown to members without an active
// subscription: date and title only.
type PostPreview struct {
	Date  string
	Title string
}

// LiveTable is a point-in-time copy of the live market sheet. Headers come
// from the sheet's first row; Rows are everything after it, untyped.
type LiveTable struct {
	Headers   []string
	Rows      [][]string
	FetchedAt string // HH:MM:SS, UTC+8
}

func (t LiveTable) Empty() bool {
	return len(t.Rows) == 0
}

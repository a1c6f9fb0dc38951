package render

// Unit is the plain-text rendition of one page.
type Unit struct {
	Title string
	URL   string
	Body  string
}

// String returns the unit in its wire format: a title heading, the page URL
// and the flattened body, separated by blank lines.
func (u Unit) String() string {
	return "# " + u.Title + "\n\nURL: " + u.URL + "\n\n" + u.Body
}

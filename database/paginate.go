package database

import (
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/models"
)

// LastPage may be passed as a page number to select the final page.
const LastPage = -1

// Page is one window of an ordered post listing.
type Page struct {
	Posts    []*models.Post
	Number   int
	NumPages int
	Total    int64
	PerPage  int
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) PreviousNumber() int {
	return p.Number - 1
}
func (p Page) NextNumber() int {
	return p.Number + 1
}

// resolvePage validates number against total and returns the page number and
// row offset. An empty listing still has a single, empty first page.
func resolvePage(number int, total int64, perPage int) (int, int, int, error) {
	if perPage < 1 {
		perPage = 1
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages == 0 {
		numPages = 1
	}
	if number == LastPage {
		number = numPages
	}
	if number < 1 || number > numPages {
		return 0, 0, 0, errs.NewNotFoundError("page")
	}
	return number, numPages, (number - 1) * perPage, nil
}
